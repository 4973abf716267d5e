package main

import (
	"encoding/binary"
	"io"
)

// writeWAVHeader writes a 16-bit PCM WAV header for frameCount frames at
// the given sample rate/channel count, using a streaming-friendly data
// size (frameCount must be known up front - the renderer is run to
// completion into a buffer before this is called).
func writeWAVHeader(w io.Writer, sampleRate, channels, frameCount int) error {
	bytesPerSample := 2
	blockAlign := channels * bytesPerSample
	byteRate := sampleRate * blockAlign
	dataSize := frameCount * blockAlign

	var hdr [44]byte
	copy(hdr[0:4], "RIFF")
	binary.LittleEndian.PutUint32(hdr[4:8], uint32(36+dataSize))
	copy(hdr[8:12], "WAVE")
	copy(hdr[12:16], "fmt ")
	binary.LittleEndian.PutUint32(hdr[16:20], 16)
	binary.LittleEndian.PutUint16(hdr[20:22], 1) // PCM
	binary.LittleEndian.PutUint16(hdr[22:24], uint16(channels))
	binary.LittleEndian.PutUint32(hdr[24:28], uint32(sampleRate))
	binary.LittleEndian.PutUint32(hdr[28:32], uint32(byteRate))
	binary.LittleEndian.PutUint16(hdr[32:34], uint16(blockAlign))
	binary.LittleEndian.PutUint16(hdr[34:36], uint16(bytesPerSample*8))
	copy(hdr[36:40], "data")
	binary.LittleEndian.PutUint32(hdr[40:44], uint32(dataSize))

	_, err := w.Write(hdr[:])
	return err
}

// writeWAVSamples writes interleaved int16 samples as little-endian PCM,
// also used for the --stdout raw-output path (same byte layout, no
// header).
func writeWAVSamples(w io.Writer, samples []int16) error {
	buf := make([]byte, len(samples)*2)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(buf[i*2:], uint16(s))
	}
	_, err := w.Write(buf)
	return err
}

// writeAUHeader writes a Sun/NeXT .au header (big-endian 16-bit PCM),
// the format used for `-o -` (stdout output without a seekable
// file to backpatch a WAV RIFF size into).
func writeAUHeader(w io.Writer, sampleRate, channels, frameCount int) error {
	dataSize := frameCount * channels * 2

	var hdr [24]byte
	copy(hdr[0:4], ".snd")
	binary.BigEndian.PutUint32(hdr[4:8], 24) // data offset
	binary.BigEndian.PutUint32(hdr[8:12], uint32(dataSize))
	binary.BigEndian.PutUint32(hdr[12:16], 3) // encoding: 16-bit linear PCM
	binary.BigEndian.PutUint32(hdr[16:20], uint32(sampleRate))
	binary.BigEndian.PutUint32(hdr[20:24], uint32(channels))

	_, err := w.Write(hdr[:])
	return err
}

// writeAUSamples writes interleaved int16 samples as big-endian PCM.
func writeAUSamples(w io.Writer, samples []int16) error {
	buf := make([]byte, len(samples)*2)
	for i, s := range samples {
		binary.BigEndian.PutUint16(buf[i*2:], uint16(s))
	}
	_, err := w.Write(buf)
	return err
}
