// Command framecat converts between newline separated text and framed
// streams.
//
//	framecat encode --codec recordio < lines.txt > records
//	framecat decode --codec recordio --format quoted < records
package main

import (
	"os"

	"github.com/alecthomas/kong"
	log "github.com/golang/glog"
)

func main() {
	var cli CLI
	ctx := kong.Parse(&cli, parserOptions()...)
	env, err := cli.env(os.Stdin, os.Stdout)
	ctx.FatalIfErrorf(err)
	err = ctx.Run(env)
	log.Flush()
	ctx.FatalIfErrorf(err)
}
