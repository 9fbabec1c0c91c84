package main

import (
	"golang.org/x/tools/go/analysis/singlechecker"

	"crimescape.app/dna/tools/linters/enumvalidator"
)

func main() {
	singlechecker.Main(enumvalidator.Analyzer)
}
