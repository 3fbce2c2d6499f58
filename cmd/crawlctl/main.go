package main

import "github.com/rohmanhakim/crawlctl/internal/cli"

func main() {
	cli.Execute()
}
