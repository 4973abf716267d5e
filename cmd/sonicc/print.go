package main

import (
	"fmt"
	"io"

	"sonicc/program"
	"sonicc/tables"
)

// printProgram writes the program-printout format: one line per event
// with its absolute event index and voice id, followed by indented
// operator lines giving id, time, frequency, amplitude, and modulator
// id lists.
func printProgram(w io.Writer, prog *program.Program) {
	var absSamples int64
	for i := range prog.Events {
		ev := &prog.Events[i]
		absSamples += ev.WaitSamples
		fmt.Fprintf(w, "event %d voice %d t=%.3fs\n", i, ev.VoiceID, float64(absSamples)/prog.SampleRate)
		for _, up := range ev.OpUpdates {
			opTime := float64(prog.Operator(up.OpID).DurationSmp) / prog.SampleRate
			fmt.Fprintf(w, "  op %d time=%.3fs%s\n", up.OpID, opTime, formatUpdate(up))
		}
	}
}

func formatUpdate(up program.OpUpdate) string {
	s := ""
	if up.FreqUpdate != nil {
		s += " freq=" + formatRampUpdate(up.FreqUpdate)
	}
	if up.AmpUpdate != nil {
		s += " amp=" + formatRampUpdate(up.AmpUpdate)
	}
	if up.PanUpdate != nil {
		s += " pan=" + formatRampUpdate(up.PanUpdate)
	}
	if ids := formatIDs(up.FMList); ids != "" {
		s += " fm=" + ids
	}
	if ids := formatIDs(up.RateFMList); ids != "" {
		s += " rfm=" + ids
	}
	if ids := formatIDs(up.PMList); ids != "" {
		s += " pm=" + ids
	}
	if ids := formatIDs(up.FreqPMList); ids != "" {
		s += " fpm=" + ids
	}
	if ids := formatIDs(up.AMList); ids != "" {
		s += " am=" + ids
	}
	if ids := formatIDs(up.RingAMList); ids != "" {
		s += " ram=" + ids
	}
	return s
}

func formatRampUpdate(u *tables.Update) string {
	hasState := u.Flags&tables.FlagStateSet != 0
	hasGoal := u.Flags&tables.FlagGoalSet != 0
	switch {
	case hasState && hasGoal:
		return fmt.Sprintf("%g->%g", u.V0, u.Vt)
	case hasState:
		return fmt.Sprintf("%g", u.V0)
	case hasGoal:
		return fmt.Sprintf("->%g", u.Vt)
	default:
		return "-"
	}
}

func formatIDs(ids []int) string {
	if len(ids) == 0 {
		return ""
	}
	s := "["
	for i, id := range ids {
		if i > 0 {
			s += ","
		}
		s += fmt.Sprintf("%d", id)
	}
	return s + "]"
}
