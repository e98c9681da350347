package main

import (
	"fmt"
	"os"
	"time"

	cli "github.com/spf13/pflag"

	"github.com/FNXDOOM/Zapdos/internal/ipc"
)

func main() {
	socket := cli.StringP("socket", "s", ipc.DefaultSocketPath, "daemon control socket")
	timeout := cli.DurationP("timeout", "t", 5*time.Second, "request timeout")
	cli.Parse()

	op := cli.Arg(0)
	if op == "" {
		fmt.Fprintln(os.Stderr, "usage: assistant-ctl [flags] press|release|cancel|status")
		cli.PrintDefaults()
		os.Exit(2)
	}

	resp, err := ipc.Send(*socket, ipc.Command{Op: op}, *timeout)
	if err != nil {
		fmt.Fprintln(os.Stderr, "assistant not running:", err)
		os.Exit(1)
	}
	if !resp.OK {
		fmt.Fprintln(os.Stderr, "error:", resp.Error)
		os.Exit(1)
	}

	fmt.Println("state:", resp.State)
	if resp.Transcript != "" {
		fmt.Println("heard:", resp.Transcript)
	}
	if resp.Reply != "" {
		fmt.Println("reply:", resp.Reply)
	}
	if resp.Error != "" {
		fmt.Println("error:", resp.Error)
	}
}
