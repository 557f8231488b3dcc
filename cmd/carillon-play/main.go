package main

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"github.com/davecgh/go-spew/spew"
	flag "github.com/spf13/pflag"

	"github.com/carillon-audio/carillon"
	"github.com/carillon-audio/carillon/gomidi"
	"github.com/carillon-audio/carillon/oto"
	"github.com/carillon-audio/carillon/player"
	"github.com/carillon-audio/carillon/script"
	"github.com/carillon-audio/carillon/version"
)

func main() {
	stdout := flag.BoolP("stdout", "s", false, "Do not write files; write to standard output instead.")
	help := flag.BoolP("help", "h", false, "Show help.")
	directory := flag.StringP("out", "o", "", "Directory where to output all files. The directory and its parents are created if needed. By default, everything is placed in the current working directory.")
	play := flag.BoolP("play", "p", false, "Play the input arrangements (default behaviour when no other output is defined).")
	rawOut := flag.BoolP("raw", "r", false, "Output the rendered arrangement as .raw file. By default, saves stereo float32 buffer to disk.")
	wavOut := flag.BoolP("wav", "w", false, "Output the rendered arrangement as .wav file. By default, saves stereo float32 buffer to disk.")
	pcm := flag.BoolP("pcm", "c", false, "Convert audio to 16-bit signed PCM when outputting.")
	sampleRate := flag.Int("rate", 44100, "Sample rate in Hz for rendering and playback.")
	samples := flag.StringArray("sample", nil, "Load a .wav sample as name=path. May be given multiple times.")
	melodies := flag.StringArray("melody", nil, "Load a melody file (.mel or .yml) before the arrangements. May be given multiple times.")
	loop := flag.Bool("loop", false, "Enable looping; play until interrupted.")
	scriptPath := flag.String("script", "", "Run a Lua control script against the engine instead of just playing through.")
	listMIDI := flag.Bool("list-midi", false, "List the available MIDI inputs and exit.")
	midiInput := flag.String("midi", "", "Attach the MIDI input whose name starts with the given prefix.")
	dump := flag.Bool("dump", false, "Dump the parsed arrangement to standard error.")
	versionFlag := flag.BoolP("version", "v", false, "Print version.")
	flag.Usage = printUsage
	flag.Parse()
	if *versionFlag {
		fmt.Println(version.VersionOrHash)
		os.Exit(0)
	}
	if *listMIDI {
		midi := gomidi.NewContext(nil)
		defer midi.Close()
		for _, name := range midi.InputDevices() {
			fmt.Println(name)
		}
		os.Exit(0)
	}
	if flag.NArg() == 0 || *help {
		flag.Usage()
		os.Exit(0)
	}
	if !*rawOut && !*wavOut && *scriptPath == "" {
		*play = true // if the user gives nothing to output, then the default behaviour is just to play the file
	}
	engine := player.NewEngine(float32(*sampleRate))
	defer engine.Close()
	for _, s := range *samples {
		name, path, ok := strings.Cut(s, "=")
		if !ok {
			fmt.Fprintf(os.Stderr, "--sample needs name=path, got %q\n", s)
			os.Exit(1)
		}
		if err := engine.LoadSample(name, path); err != nil {
			fmt.Fprintf(os.Stderr, "could not load sample %v: %v\n", path, err)
			os.Exit(1)
		}
	}
	for _, path := range *melodies {
		if _, err := engine.LoadMelody(path); err != nil {
			fmt.Fprintf(os.Stderr, "could not load melody %v: %v\n", path, err)
			os.Exit(1)
		}
	}
	var audioContext carillon.AudioContext
	var playWaiter carillon.CloserWaiter
	if *play || *scriptPath != "" {
		var err error
		audioContext, err = oto.NewContext(*sampleRate)
		if err != nil {
			fmt.Fprintf(os.Stderr, "could not acquire audio device: %v\n", err)
			os.Exit(1)
		}
		defer audioContext.Close()
		playWaiter = audioContext.Play(engine.Player())
		defer playWaiter.Close()
	}
	if *midiInput != "" {
		midi := gomidi.NewContext(engine)
		defer midi.Close()
		if err := midi.TryToOpenBy(*midiInput, false); err != nil {
			fmt.Fprintf(os.Stderr, "could not open MIDI input: %v\n", err)
		}
	}
	process := func(filename string) error {
		arr, err := engine.LoadArrangement(filename)
		if err != nil {
			return err
		}
		if *dump {
			spew.Fdump(os.Stderr, arr)
		}
		var buffer carillon.AudioBuffer
		if *rawOut || *wavOut {
			buffer, err = engine.RenderArrangement(arr.Name)
			if err != nil {
				return fmt.Errorf("rendering failed: %v", err)
			}
			if *rawOut {
				raw, err := buffer.Raw(*pcm)
				if err != nil {
					return fmt.Errorf("could not generate .raw file: %v", err)
				}
				if err := output(filename, ".raw", raw, *stdout, *directory); err != nil {
					return fmt.Errorf("error outputting .raw file: %v", err)
				}
			}
			if *wavOut {
				wav, err := buffer.Wav(*sampleRate, *pcm)
				if err != nil {
					return fmt.Errorf("could not generate .wav file: %v", err)
				}
				if err := output(filename, ".wav", wav, *stdout, *directory); err != nil {
					return fmt.Errorf("error outputting .wav file: %v", err)
				}
			}
		}
		if *play {
			if buffer != nil {
				// play back exactly what was exported
				audioContext.Play(buffer.Source()).Wait()
				return nil
			}
			if err := engine.Play(arr.Name); err != nil {
				return err
			}
			if *loop {
				engine.SetLoopEnabled(true)
				waitForInterrupt()
				return engine.Stop()
			}
			waitUntilStopped(engine)
		}
		return nil
	}
	retval := 0
	if *scriptPath != "" {
		if err := script.Run(engine, *scriptPath); err != nil {
			fmt.Fprintf(os.Stderr, "%v\n", err)
			retval = 1
		}
	}
	for _, param := range flag.Args() {
		if info, err := os.Stat(param); err == nil && info.IsDir() {
			var files []string
			for _, pattern := range []string{"*.bmi", "*.yml", "*.yaml"} {
				matches, err := filepath.Glob(filepath.Join(param, pattern))
				if err != nil {
					fmt.Fprintf(os.Stderr, "could not glob the path %v: %v\n", param, err)
					retval = 1
					continue
				}
				files = append(files, matches...)
			}
			for _, file := range files {
				if err := process(file); err != nil {
					fmt.Fprintf(os.Stderr, "could not process file %v: %v\n", file, err)
					retval = 1
				}
			}
		} else {
			if err := process(param); err != nil {
				fmt.Fprintf(os.Stderr, "could not process file %v: %v\n", param, err)
				retval = 1
			}
		}
	}
	os.Exit(retval)
}

func output(filename, extension string, contents []byte, stdout bool, directory string) error {
	if stdout {
		_, err := os.Stdout.Write(contents)
		return err
	}
	_, name := filepath.Split(filename)
	dir := directory
	if dir == "" {
		var err error
		dir, err = os.Getwd()
		if err != nil {
			return fmt.Errorf("could not get working directory, specify the output directory explicitly: %v", err)
		}
	}
	name = strings.TrimSuffix(name, filepath.Ext(name)) + extension
	f := filepath.Join(dir, name)
	if err := os.MkdirAll(dir, os.ModePerm); err != nil {
		return fmt.Errorf("could not create output directory %v: %v", dir, err)
	}
	if err := os.WriteFile(f, contents, 0644); err != nil {
		return fmt.Errorf("could not write file %v: %v", f, err)
	}
	return nil
}

// waitUntilStopped polls the engine state; the short head start covers the
// gap before the render side has processed the play message.
func waitUntilStopped(engine *player.Engine) {
	time.Sleep(200 * time.Millisecond)
	for engine.State() != carillon.StateStopped {
		time.Sleep(50 * time.Millisecond)
	}
}

func waitForInterrupt() {
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt)
	<-c
}

func printUsage() {
	fmt.Fprintf(os.Stderr, "Carillon command line utility for playing .bmi/.yml arrangement files.\nUsage: %s [flags] [path ...]\n", os.Args[0])
	flag.PrintDefaults()
}
