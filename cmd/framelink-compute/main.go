package main

import "os"

func main() {
    os.Exit(run(ParseArgs(os.Args[1:], warnUnknown)))
}
