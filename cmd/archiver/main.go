package main

import (
	"civitai-archiver/internal/cli"
)

func main() {
	cli.Execute()
}
