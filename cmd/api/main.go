package main

import "github.com/ramiqadoumi/go-drive-quest/services/api/cli"

func main() {
	cli.Execute()
}
