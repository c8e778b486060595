package main

import (
    "fmt"
    "strings"
)

const version = "framelink-compute 26.08.1"

const usage = `usage: framelink-compute [options]
  --openport       publish a rendezvous endpoint for the view program
  --config PATH    path to YAML config file
  --version        print build identifier and exit
  --help           print this message and exit
without --openport the program computes standalone, streaming nothing`

// Options holds CLI options for the compute binary.
type Options struct {
    ConfigPath  string
    OpenPort    bool
    ShowVersion bool
    ShowHelp    bool
}

// ParseArgs scans args by hand: unknown options warn and are ignored
// instead of aborting the run.
func ParseArgs(args []string, warn func(string)) Options {
    var opts Options
    for i := 0; i < len(args); i++ {
        switch arg := args[i]; {
        case arg == "--version":
            opts.ShowVersion = true
        case arg == "--help":
            opts.ShowHelp = true
        case arg == "--openport":
            opts.OpenPort = true
        case arg == "--config" && i+1 < len(args):
            i++
            opts.ConfigPath = args[i]
        case strings.HasPrefix(arg, "--config="):
            opts.ConfigPath = strings.TrimPrefix(arg, "--config=")
        default:
            if warn != nil {
                warn(arg)
            }
        }
    }
    return opts
}

func warnUnknown(arg string) {
    fmt.Printf("unknown option %q (ignored)\n", arg)
}
