/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package main

import "github.com/projtrack/apiserver/cmd"

func main() {
	cmd.Execute()
}
