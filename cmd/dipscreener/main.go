package main

import "dip-screener/internal/cli"

func main() {
	cli.Execute()
}
