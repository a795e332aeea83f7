package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/asticode/go-astiav"
	"github.com/asticode/go-astikit"
	"github.com/asticode/go-astirecorder"
	astilibav "github.com/asticode/go-astirecorder/libav"
	astinative "github.com/asticode/go-astirecorder/native"
	"github.com/spf13/cobra"
)

var recordCmd = &cobra.Command{
	Use:   "record",
	Short: "Record a synthetic test pattern",
	Long:  `Records a moving test pattern, and optionally silence, until the duration is reached or the process is interrupted.`,
	RunE:  func(cmd *cobra.Command, args []string) error { return record(cmd) },
}

func init() {
	recordCmd.Flags().StringP("output", "o", "", "Output url, image sequences accept a printf verb such as out-%04d.png")
	recordCmd.Flags().StringP("config", "c", "", "Path to a toml configuration")
	recordCmd.Flags().String("backend", "native", "Backend: native or libav")
	recordCmd.Flags().Duration("duration", 5*time.Second, "Recording duration, 0 means until interrupted")
	recordCmd.Flags().String("fps", "", "Frame rate such as 25/1")
	recordCmd.Flags().String("size", "320x240", "Captured image size")
	recordCmd.Flags().Bool("audio", false, "Record silence alongside video")
	recordCmd.Flags().Int("quality", 0, "Quality from 1 to 100")
	recordCmd.Flags().Int("rescale", 0, "Percentage applied to captured dimensions")
	recordCmd.Flags().String("server", "", "Address of the monitoring server")
	recordCmd.Flags().String("event-log", "", "Path of the csv event log")
	recordCmd.MarkFlagRequired("output")
}

func record(cmd *cobra.Command) (err error) {
	// Create configuration
	c := astirecorder.FlagConfig()
	if p, _ := cmd.Flags().GetString("config"); p != "" {
		if err = astirecorder.LoadConfiguration(p, &c); err != nil {
			return fmt.Errorf("main: loading configuration failed: %w", err)
		}
	}
	if err = applyFlags(cmd, &c); err != nil {
		return fmt.Errorf("main: applying flags failed: %w", err)
	}

	// Create logger
	l := log.New(log.Writer(), log.Prefix(), log.Flags())

	// Create worker
	w := astikit.NewWorker(astikit.WorkerOptions{Logger: l})

	// Handle signals
	w.HandleSignals()

	// Create event handler
	eh := astirecorder.NewEventHandler()

	// Log event handler
	el := eh.Log(astirecorder.EventHandlerLogOptions{
		Logger:               l,
		MessageMergingPeriod: c.Log.MessageMergingPeriod.Duration,
	}).Start(w.Context())
	defer el.Close()

	// Create backend
	var b astirecorder.Backend
	switch n, _ := cmd.Flags().GetString("backend"); n {
	case "libav":
		astilibav.Log(eh, el, astilibav.LogOptions{Level: astiav.LogLevelWarning})
		b = astilibav.NewBackend(astilibav.BackendOptions{})
	case "native":
		b = astinative.NewBackend(astinative.BackendOptions{})
	default:
		return fmt.Errorf("main: unknown backend %s", n)
	}

	// Get session parameters
	var p astirecorder.SessionParameters
	if p, err = c.Recording.SessionParameters(); err != nil {
		return fmt.Errorf("main: getting session parameters failed: %w", err)
	}
	p.URL, _ = cmd.Flags().GetString("output")
	if audio, _ := cmd.Flags().GetBool("audio"); audio {
		p.AudioSource = astirecorder.NewSilenceSource(p.SampleRate, p.Channels, 0)
		p.AudioWanted = true
	}

	// Open session
	var s *astirecorder.Session
	if s, err = astirecorder.OpenSession(w.Context(), astirecorder.SessionOptions{
		Backend:      b,
		EventHandler: eh,
		Parameters:   p,
	}); err != nil {
		return fmt.Errorf("main: opening session failed: %w", err)
	}

	// Create stater
	st := astirecorder.NewStater(c.Stats.Period.Duration, eh)
	st.AddStats(s, s.StatOptions()...)
	st.AddPSUtil()
	go st.Start(w.Context())
	defer st.Stop()

	// Serve
	if c.Server.Addr != "" {
		if err = serve(w, c.Server.Addr, s, eh, cmd); err != nil {
			return fmt.Errorf("main: serving failed: %w", err)
		}
	}

	// Record
	if err = feed(w, s, p.FrameRate, cmd); err != nil {
		s.Close()
		return fmt.Errorf("main: feeding failed: %w", err)
	}

	// Close session
	if err = s.Close(); err != nil {
		return fmt.Errorf("main: closing session failed: %w", err)
	}

	// Wait
	w.Stop()
	w.Wait()
	return
}

func applyFlags(cmd *cobra.Command, c *astirecorder.Configuration) (err error) {
	if cmd.Flags().Changed("fps") {
		c.Recording.FrameRate, _ = cmd.Flags().GetString("fps")
	}
	if cmd.Flags().Changed("quality") {
		c.Recording.Quality, _ = cmd.Flags().GetInt("quality")
	}
	if cmd.Flags().Changed("rescale") {
		c.Recording.Rescale, _ = cmd.Flags().GetInt("rescale")
	}
	if cmd.Flags().Changed("server") {
		c.Server.Addr, _ = cmd.Flags().GetString("server")
	}
	return
}

func serve(w *astikit.Worker, addr string, s *astirecorder.Session, eh *astirecorder.EventHandler, cmd *cobra.Command) (err error) {
	// Create server
	srv := astirecorder.NewServer(astirecorder.ServerOptions{Logger: log.Default()})
	srv.SetSession(s)
	srv.EventHandlerAdapter(eh)

	// Start event log
	if p, _ := cmd.Flags().GetString("event-log"); p != "" {
		if err = srv.StartEventLog(p, nil); err != nil {
			return fmt.Errorf("main: starting event log failed: %w", err)
		}
	}

	// Listen
	hs := &http.Server{
		Addr:    addr,
		Handler: srv.Handler(),
	}
	t := w.NewTask()
	go func() {
		defer t.Done()
		if err := hs.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Println(fmt.Errorf("main: serving failed: %w", err))
		}
	}()

	// Shutdown once the worker is stopped
	go func() {
		<-w.Context().Done()
		srv.StopEventLog()
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		hs.Shutdown(ctx)
	}()
	return
}

func feed(w *astikit.Worker, s *astirecorder.Session, fr astirecorder.Rational, cmd *cobra.Command) (err error) {
	// Parse size
	sz, _ := cmd.Flags().GetString("size")
	var width, height int
	if width, height, err = parseSize(sz); err != nil {
		return
	}

	// Get duration
	d, _ := cmd.Flags().GetDuration("duration")
	var deadline <-chan time.Time
	if d > 0 {
		deadline = time.After(d)
	}

	// Create ticker
	if !fr.Valid() {
		fr = astirecorder.DefaultFrameRate
	}
	tk := time.NewTicker(time.Duration(float64(time.Second) / fr.Float64()))
	defer tk.Stop()

	// Loop
	p := newPattern(width, height)
	for {
		select {
		case <-w.Context().Done():
			return
		case <-deadline:
			w.Stop()
			return
		case <-tk.C:
			if err = s.Feed(p.next()); err != nil {
				return fmt.Errorf("main: feeding failed: %w", err)
			}
		}
	}
}

func parseSize(s string) (w, h int, err error) {
	ps := strings.Split(s, "x")
	if len(ps) != 2 {
		err = fmt.Errorf("main: invalid size %s", s)
		return
	}
	if w, err = strconv.Atoi(ps[0]); err != nil {
		err = fmt.Errorf("main: atoi of %s failed: %w", ps[0], err)
		return
	}
	if h, err = strconv.Atoi(ps[1]); err != nil {
		err = fmt.Errorf("main: atoi of %s failed: %w", ps[1], err)
		return
	}
	return
}
