package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	repository "github.com/okian/boared/internal/adapters/repository"
	"github.com/okian/boared/internal/domain/types"
)

// Output formats.
const (
	formatText = "text"
	formatJSON = "json"
)

// Output prints command results in the configured format.
type Output struct {
	w      io.Writer
	format string
}

// NewOutput creates an Output writing to w.
func NewOutput(w io.Writer, format string) *Output {
	return &Output{w: w, format: format}
}

// Print outputs data in the configured format.
func (o *Output) Print(data any) error {
	if o.format == formatJSON {
		enc := json.NewEncoder(o.w)
		enc.SetIndent("", "  ")
		return enc.Encode(data)
	}
	return o.printText(data)
}

func (o *Output) printText(data any) error {
	tw := tabwriter.NewWriter(o.w, 0, 0, 2, ' ', 0)
	switch v := data.(type) {
	case []types.Row:
		fmt.Fprintln(tw, "RANK\tMEMBER\tSCORE\tSESSIONS\tRATING\tMU\tSIGMA")
		for _, r := range v {
			fmt.Fprintf(tw, "%d\t%s\t%g\t%d\t%.2f\t%.2f\t%.2f\n", r.Rank, r.Member, r.Score, r.Sessions, r.Rating, r.Mu, r.Sigma)
		}
	case []types.MemberRating:
		fmt.Fprintln(tw, "MEMBER\tMU\tSIGMA\tEXPOSED")
		for _, r := range v {
			fmt.Fprintf(tw, "%s\t%.3f\t%.3f\t%.3f\n", r.Member, r.Mu, r.Sigma, r.Exposed)
		}
	case repository.Counts:
		fmt.Fprintln(tw, "MEMBERS\tGAMES\tSESSIONS\tRESULTS")
		fmt.Fprintf(tw, "%d\t%d\t%d\t%d\n", v.Members, v.Games, v.Sessions, v.Results)
	default:
		fmt.Fprintln(tw, v)
	}
	return tw.Flush()
}
