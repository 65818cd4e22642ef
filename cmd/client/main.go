package main

import (
	"bufio"
	"flag"
	"fmt"
	"net"
	"os"
	"strings"
)

func main() {
	addr := flag.String("addr", "127.0.0.1:8080", "server address")
	flag.Parse()

	stdin := bufio.NewReader(os.Stdin)

	fmt.Print("Enter your name: ")
	name, err := stdin.ReadString('\n')
	if err != nil {
		fmt.Fprintln(os.Stderr, "read name:", err)
		os.Exit(1)
	}
	name = strings.TrimSpace(name)

	conn, err := net.Dial("tcp", *addr)
	if err != nil {
		fmt.Fprintln(os.Stderr, "connect:", err)
		os.Exit(1)
	}
	defer conn.Close()
	fmt.Println("connected to", *addr)

	if _, err := fmt.Fprintln(conn, name); err != nil {
		fmt.Fprintln(os.Stderr, "send name:", err)
		os.Exit(1)
	}

	// Print every server line until the connection closes.
	go func() {
		scanner := bufio.NewScanner(conn)
		for scanner.Scan() {
			fmt.Println(scanner.Text())
		}
		fmt.Println("disconnected")
		os.Exit(0)
	}()

	// q quits, /w <name> <text> whispers, /users and /history query,
	// anything else broadcasts. The server parses; we just forward lines.
	for {
		line, err := stdin.ReadString('\n')
		if err != nil {
			break
		}
		line = strings.TrimRight(line, "\r\n")
		if line == "" {
			continue
		}
		if _, err := fmt.Fprintln(conn, line); err != nil {
			break
		}
		if line == "q" {
			break
		}
	}
}
