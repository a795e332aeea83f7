package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/asticode/go-astirecorder"
	astilibav "github.com/asticode/go-astirecorder/libav"
	astinative "github.com/asticode/go-astirecorder/native"
	"github.com/spf13/cobra"
)

var codecsCmd = &cobra.Command{
	Use:   "codecs",
	Short: "List containers and the codecs the backend can encode",
	RunE: func(cmd *cobra.Command, args []string) error {
		n, _ := cmd.Flags().GetString("backend")
		a, err := backendAvailability(n)
		if err != nil {
			return err
		}
		printCodecs(cmd.OutOrStdout(), a)
		return nil
	},
}

func init() {
	codecsCmd.Flags().String("backend", "native", "Backend: native or libav")
}

func backendAvailability(name string) (astirecorder.Availability, error) {
	var b astirecorder.Availabler
	switch name {
	case "libav":
		b = astilibav.NewBackend(astilibav.BackendOptions{})
	case "native":
		b = astinative.NewBackend(astinative.BackendOptions{})
	default:
		return astirecorder.Availability{}, fmt.Errorf("main: unknown backend %s", name)
	}
	return b.Available(), nil
}

// Unavailable codecs are listed between parentheses
func printCodecs(w io.Writer, a astirecorder.Availability) {
	for _, c := range astirecorder.Containers() {
		var vs, as []string
		for _, id := range c.AllowedVideoCodecs {
			if a.HasVideoCodec(id) {
				vs = append(vs, id.String())
			} else {
				vs = append(vs, "("+id.String()+")")
			}
		}
		for _, id := range c.AllowedAudioCodecs {
			if a.HasAudioCodec(id) {
				as = append(as, id.String())
			} else {
				as = append(as, "("+id.String()+")")
			}
		}
		fmt.Fprintf(w, "%s [%s]: video=%s audio=%s\n", c.LongName, strings.Join(c.Extensions, ","), strings.Join(vs, ","), strings.Join(as, ","))
	}
}
