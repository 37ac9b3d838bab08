package main

import (
	"os"

	"github.com/ridge/chamber/importers/csvimport"
)

func main() {
	csvimport.Main(os.Args)
}
