package main

var (
	// Version is the semantic dashctl version, set at build time.
	Version = "1.2.0"
	// Gitref is the git reference dashctl was built from, set at build time.
	Gitref string
)
