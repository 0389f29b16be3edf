package main

import "LIBRA-backend/internal/cli"

func main() {
	cli.Execute()
}
