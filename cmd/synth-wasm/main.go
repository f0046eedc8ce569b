//go:build js && wasm

package main

import (
	"syscall/js"
	"unsafe"

	"github.com/cwbudde/algo-synth/preset"
	"github.com/cwbudde/algo-synth/synth"
)

const maxFrames = 128

var (
	globalSynth  *synth.Synth
	outputBuffer []float32
)

func main() {
	c := make(chan struct{})

	js.Global().Set("wasmInit", js.FuncOf(wasmInit))
	js.Global().Set("wasmNoteOn", js.FuncOf(wasmNoteOn))
	js.Global().Set("wasmNoteOff", js.FuncOf(wasmNoteOff))
	js.Global().Set("wasmAllNotesOff", js.FuncOf(wasmAllNotesOff))
	js.Global().Set("wasmSetParam", js.FuncOf(wasmSetParam))
	js.Global().Set("wasmLoadPreset", js.FuncOf(wasmLoadPreset))
	js.Global().Set("wasmProcessBlock", js.FuncOf(wasmProcessBlock))
	js.Global().Set("wasmGetMemoryBuffer", js.FuncOf(wasmGetMemoryBuffer))

	println("WASM synth module loaded")
	<-c
}

// wasmInit(sampleRate[, voices])
func wasmInit(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return nil
	}
	cfg := synth.DefaultConfig()
	cfg.SampleRate = args[0].Int()
	cfg.MaxBlockSize = maxFrames
	if len(args) > 1 {
		cfg.Voices = args[1].Int()
	}
	s, err := synth.New(cfg, nil)
	if err != nil {
		println("Synth init failed:", err.Error())
		return nil
	}
	globalSynth = s
	outputBuffer = make([]float32, maxFrames*cfg.Channels)

	println("Synth initialized at", cfg.SampleRate, "Hz with", cfg.Voices, "voices")
	return nil
}

func wasmNoteOn(this js.Value, args []js.Value) interface{} {
	if len(args) < 2 || globalSynth == nil {
		return nil
	}
	return globalSynth.NoteOn(args[0].Int(), args[1].Int())
}

func wasmNoteOff(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 || globalSynth == nil {
		return nil
	}
	globalSynth.NoteOff(args[0].Int())
	return nil
}

func wasmAllNotesOff(this js.Value, args []js.Value) interface{} {
	if globalSynth == nil {
		return nil
	}
	tail := len(args) > 0 && args[0].Bool()
	globalSynth.AllNotesOff(tail)
	return nil
}

// wasmSetParam(key, value) returns the stored value, or null for an unknown
// key.
func wasmSetParam(this js.Value, args []js.Value) interface{} {
	if len(args) < 2 || globalSynth == nil {
		return nil
	}
	id, ok := synth.Lookup(args[0].String())
	if !ok {
		return nil
	}
	stored, ok := globalSynth.Params().Set(id, float32(args[1].Float()))
	if !ok {
		return nil
	}
	return float64(stored)
}

// wasmLoadPreset(jsonText) returns the number of parameters written.
func wasmLoadPreset(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 || globalSynth == nil {
		return 0
	}
	f, err := preset.ParseJSON([]byte(args[0].String()))
	if err != nil {
		println("Preset rejected:", err.Error())
		return 0
	}
	r := f.Apply(globalSynth.Params())
	return len(r.Applied) + len(r.Clamped)
}

func wasmProcessBlock(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 || globalSynth == nil {
		return 0
	}
	numFrames := min(args[0].Int(), maxFrames)
	if numFrames <= 0 {
		return 0
	}
	ch := globalSynth.Config().Channels
	globalSynth.ProcessInterleaved(outputBuffer[:numFrames*ch], nil)

	ptr := &outputBuffer[0]
	return js.ValueOf(uintptr(unsafe.Pointer(ptr)))
}

func wasmGetMemoryBuffer(this js.Value, args []js.Value) interface{} {
	return js.Global().Get("Go").Get("_inst").Get("exports").Get("mem").Get("buffer")
}
