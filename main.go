package main

import "github.com/theirongolddev/tbidash/cmd"

func main() {
	cmd.Execute()
}
