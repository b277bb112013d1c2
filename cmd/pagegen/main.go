package main

import "github.com/Sternrassler/pagegen/internal/cli"

func main() {
	cli.Execute()
}
