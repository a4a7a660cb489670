package main

import "github.com/ramiqadoumi/go-drive-quest/services/worker/cli"

func main() {
	cli.Execute()
}
