package version

// Version wird beim Release-Build via ldflags gesetzt.
var Version string = "0.1.0"
