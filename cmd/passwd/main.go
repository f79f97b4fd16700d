// Command passwd prints a bcrypt hash suitable for seeding a user record.
//
//	passwd                     prompt twice on the terminal
//	passwd --stdin < pw.txt    read the password from stdin
//	passwd --verify '$2a$...'  check a password against an existing hash
package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/pflag"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/term"

	"github.com/memory-app/memory-api/internal/core/domain"
)

func main() {
	if err := run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

type options struct {
	cost      int
	fromStdin bool
	verify    string
}

func run(args []string, stdin *os.File, stdout, stderr io.Writer) error {
	var opts options
	flagSet := pflag.NewFlagSet("passwd", pflag.ContinueOnError)
	flagSet.SetOutput(stderr)
	flagSet.IntVar(&opts.cost, "cost", bcrypt.DefaultCost, "bcrypt cost (4-31)")
	flagSet.BoolVar(&opts.fromStdin, "stdin", false, "read the password from stdin instead of prompting")
	flagSet.StringVar(&opts.verify, "verify", "", "check the password against this hash instead of hashing it")
	if err := flagSet.Parse(args); err != nil {
		return err
	}
	if flagSet.NArg() > 0 {
		return fmt.Errorf("unexpected argument: %s", flagSet.Arg(0))
	}
	if opts.cost < bcrypt.MinCost || opts.cost > bcrypt.MaxCost {
		return fmt.Errorf("--cost must be between %d and %d", bcrypt.MinCost, bcrypt.MaxCost)
	}

	var password []byte
	var err error
	if opts.fromStdin {
		password, err = readLine(stdin)
	} else {
		password, err = prompt(stdin, stderr, opts.verify == "")
	}
	if err != nil {
		return err
	}

	if opts.verify != "" {
		if err := bcrypt.CompareHashAndPassword([]byte(opts.verify), password); err != nil {
			return errors.New("password does not match hash")
		}
		fmt.Fprintln(stdout, "ok")
		return nil
	}

	out, err := hash(password, opts.cost)
	if err != nil {
		return err
	}
	fmt.Fprintln(stdout, out)
	return nil
}

func hash(password []byte, cost int) (string, error) {
	if err := domain.CheckPassword(string(password)); err != nil {
		return "", err
	}
	h, err := bcrypt.GenerateFromPassword(password, cost)
	if err != nil {
		return "", fmt.Errorf("hashing password: %w", err)
	}
	return string(h), nil
}

// readLine reads one line, stripping the trailing newline.
func readLine(r io.Reader) ([]byte, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("reading password: %w", err)
	}
	line = strings.TrimRight(line, "\r\n")
	if line == "" {
		return nil, errors.New("empty password")
	}
	return []byte(line), nil
}

func prompt(stdin *os.File, stderr io.Writer, confirm bool) ([]byte, error) {
	fd := int(stdin.Fd())
	if !term.IsTerminal(fd) {
		return nil, errors.New("no terminal available for interactive password prompt (use --stdin)")
	}

	fmt.Fprint(stderr, "Password: ")
	first, err := term.ReadPassword(fd)
	fmt.Fprintln(stderr)
	if err != nil {
		return nil, fmt.Errorf("reading password: %w", err)
	}
	if !confirm {
		return first, nil
	}

	fmt.Fprint(stderr, "Confirm: ")
	second, err := term.ReadPassword(fd)
	fmt.Fprintln(stderr)
	if err != nil {
		return nil, fmt.Errorf("reading password: %w", err)
	}
	if string(first) != string(second) {
		return nil, errors.New("passwords do not match")
	}
	return first, nil
}
