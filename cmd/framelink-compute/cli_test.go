package main

import "testing"

func TestParseArgs(t *testing.T) {
    cases := []struct {
        name string
        args []string
        want Options
        warn []string
    }{
        {"empty", nil, Options{}, nil},
        {"openport", []string{"--openport"}, Options{OpenPort: true}, nil},
        {"version", []string{"--version"}, Options{ShowVersion: true}, nil},
        {"help", []string{"--help"}, Options{ShowHelp: true}, nil},
        {"config split", []string{"--config", "a.yaml"}, Options{ConfigPath: "a.yaml"}, nil},
        {"config inline", []string{"--config=b.yaml"}, Options{ConfigPath: "b.yaml"}, nil},
        {"combined", []string{"--openport", "--config", "c.yaml"},
            Options{OpenPort: true, ConfigPath: "c.yaml"}, nil},
        {"unknown ignored", []string{"--frobnicate", "--openport"},
            Options{OpenPort: true}, []string{"--frobnicate"}},
        {"trailing config flag warns", []string{"--config"},
            Options{}, []string{"--config"}},
    }
    for _, tc := range cases {
        var warned []string
        got := ParseArgs(tc.args, func(arg string) { warned = append(warned, arg) })
        if got != tc.want {
            t.Errorf("%s: got %+v, want %+v", tc.name, got, tc.want)
        }
        if len(warned) != len(tc.warn) {
            t.Errorf("%s: warned %v, want %v", tc.name, warned, tc.warn)
            continue
        }
        for i := range warned {
            if warned[i] != tc.warn[i] {
                t.Errorf("%s: warned %v, want %v", tc.name, warned, tc.warn)
            }
        }
    }
}
