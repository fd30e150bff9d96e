// SPDX-License-Identifier: MIT
package cmd

import (
	"probe/internal/config"
	"probe/pkg/build"

	"github.com/spf13/cobra"
)

// Commands selected on the command line. An empty Command means cobra
// already handled the invocation (help or version) and there is nothing to run.
const (
	CommandRun    = "run"
	CommandList   = "list"
	CommandPick   = "pick"
	CommandReplay = "replay"
)

// Options is the parsed command line: the merged configuration plus the
// command to execute.
type Options struct {
	Config     *config.Config
	Command    string
	ReplayFile string
	Realtime   bool
}

type flagValues struct {
	configPath      string
	deviceID        int
	portChannel     int
	sampleRate      float64
	framesPerBuffer int
	lowLatency      bool
	verbose         bool
}

// ParseArgs parses args (without the program name). Configuration is loaded
// from --config (or probe.yaml and PROBE_* variables), then any flag set on
// the command line overrides it.
func ParseArgs(args []string) (*Options, error) {
	buildInfo := build.GetBuildFlags()
	options := &Options{}
	var flags flagValues

	// load runs before every command once flags are parsed.
	load := func(cmd *cobra.Command, _ []string) error {
		cfg, err := config.LoadConfig(flags.configPath)
		if err != nil {
			return err
		}
		applyFlags(cmd, cfg, &flags)
		if err := cfg.Validate(); err != nil {
			return err
		}
		options.Config = cfg
		return nil
	}

	rootCmd := &cobra.Command{
		Use:               buildInfo.Name,
		Short:             buildInfo.Description,
		Version:           buildInfo.String(),
		SilenceErrors:     true,
		SilenceUsage:      true,
		Args:              cobra.NoArgs,
		PersistentPreRunE: load,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd:   true,
			DisableDescriptions: true,
			DisableNoDescFlag:   true,
			HiddenDefaultCmd:    true,
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			options.Command = CommandRun
			return nil
		},
	}

	rootCmd.SetHelpCommand(&cobra.Command{Hidden: true})

	rootCmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List audio devices and their capture ports",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			options.Command = CommandList
		},
	})

	rootCmd.AddCommand(&cobra.Command{
		Use:   "pick",
		Short: "Choose a capture port interactively, then observe it",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			options.Command = CommandPick
		},
	})

	replayCmd := &cobra.Command{
		Use:   "replay FILE.wav",
		Short: "Observe one channel of a WAV file instead of a live port",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			options.Command = CommandReplay
			options.ReplayFile = args[0]
		},
	}
	replayCmd.Flags().BoolVar(&options.Realtime, "realtime", false,
		"Pace blocks to the file's sample rate instead of running flat out")
	rootCmd.AddCommand(replayCmd)

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&flags.configPath, "config", "",
		"Path to a YAML config file (default probe.yaml if present)")

	// Audio Device Configuration
	pf.IntVarP(&flags.deviceID, "device", "d", config.DefaultDeviceID,
		"Specify input device ID. Use 'list' command to see available devices.")
	pf.IntVarP(&flags.portChannel, "port-channel", "p", config.DefaultPortChannel,
		"Capture channel to observe (1 = capture_1)")
	pf.Float64VarP(&flags.sampleRate, "sample-rate", "s", config.DefaultSampleRate,
		"Sample rate, measured in Hertz (Hz)")
	pf.IntVarP(&flags.framesPerBuffer, "frames-per-buffer", "b", config.DefaultFramesPerBuffer,
		"The number of frames per buffer (affects latency)")
	pf.BoolVarP(&flags.lowLatency, "low-latency", "l", config.DefaultLowLatency,
		"Use low latency mode for real-time processing")

	// Debug Configuration
	pf.BoolVarP(&flags.verbose, "verbose", "v", false,
		"Show verbose output")

	rootCmd.SetArgs(args)
	if err := rootCmd.Execute(); err != nil {
		return nil, err
	}

	return options, nil
}

// applyFlags copies the flags the user actually set over cfg.
func applyFlags(cmd *cobra.Command, cfg *config.Config, f *flagValues) {
	changed := cmd.Flags().Changed

	if changed("device") {
		cfg.Audio.InputDevice = f.deviceID
	}
	if changed("port-channel") {
		cfg.Audio.PortChannel = f.portChannel
	}
	if changed("sample-rate") {
		cfg.Audio.SampleRate = f.sampleRate
	}
	if changed("frames-per-buffer") {
		cfg.Audio.FramesPerBuffer = f.framesPerBuffer
	}
	if changed("low-latency") {
		cfg.Audio.LowLatency = f.lowLatency
	}
	if f.verbose {
		cfg.LogLevel = "debug"
	}
}
