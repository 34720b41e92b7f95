// Package command parses chat text into typed commands and runs them
// against the task store. Malformed ids and dates are rejected here and
// never reach the store.
package command

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/nick-dorsch/taskbot/pkg/models"
)

type Kind string

const (
	KindHelp     Kind = "help"
	KindCreate   Kind = "create"
	KindSetState Kind = "setstate"
	KindSetDead  Kind = "setdead"
	KindEdit     Kind = "edit"
	KindEditName Kind = "editname"
	KindDelete   Kind = "delete"
	KindShow     Kind = "show"
	KindList     Kind = "list"
	KindListAll  Kind = "listall"
	KindAgenda   Kind = "agenda"
)

var (
	ErrUnknownCommand = errors.New("unknown command")
	ErrBadID          = errors.New("first argument should be a number")
	ErrBadDate        = errors.New("invalid date format")
	ErrMissingArgs    = errors.New("missing arguments")
)

// Command is one parsed chat command. ID and Text are only meaningful for
// the kinds that take them.
type Command struct {
	Kind Kind
	ID   uint64
	Text string
}

// Parse turns one line of chat text into a Command.
func Parse(text string) (Command, error) {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "/") {
		return Command{}, ErrUnknownCommand
	}

	name, rest, _ := strings.Cut(text[1:], " ")
	rest = strings.TrimSpace(rest)

	switch strings.ToLower(name) {
	case "help":
		return Command{Kind: KindHelp}, nil
	case "list":
		return Command{Kind: KindList}, nil
	case "listall":
		return Command{Kind: KindListAll}, nil
	case "agenda":
		return Command{Kind: KindAgenda}, nil
	case "create":
		if rest == "" {
			return Command{}, fmt.Errorf("%w: create needs a name", ErrMissingArgs)
		}
		return Command{Kind: KindCreate, Text: rest}, nil
	case "delete":
		id, err := parseID(rest)
		if err != nil {
			return Command{}, err
		}
		return Command{Kind: KindDelete, ID: id}, nil
	case "show":
		id, err := parseID(rest)
		if err != nil {
			return Command{}, err
		}
		return Command{Kind: KindShow, ID: id}, nil
	case "setstate":
		id, text, err := parseIDAndText(rest)
		if err != nil {
			return Command{}, err
		}
		return Command{Kind: KindSetState, ID: id, Text: text}, nil
	case "setdead":
		id, date, err := parseIDAndText(rest)
		if err != nil {
			return Command{}, err
		}
		if _, err := time.Parse(models.DateLayout, date); err != nil {
			return Command{}, ErrBadDate
		}
		return Command{Kind: KindSetDead, ID: id, Text: date}, nil
	case "edit":
		id, text, err := parseIDAndText(rest)
		if err != nil {
			return Command{}, err
		}
		return Command{Kind: KindEdit, ID: id, Text: text}, nil
	case "editname":
		id, text, err := parseIDAndText(rest)
		if err != nil {
			return Command{}, err
		}
		return Command{Kind: KindEditName, ID: id, Text: text}, nil
	default:
		return Command{}, ErrUnknownCommand
	}
}

func parseID(arg string) (uint64, error) {
	if arg == "" {
		return 0, fmt.Errorf("%w: an id is required", ErrMissingArgs)
	}
	id, err := strconv.ParseUint(arg, 10, 64)
	if err != nil {
		return 0, ErrBadID
	}
	return id, nil
}

func parseIDAndText(rest string) (uint64, string, error) {
	first, text, _ := strings.Cut(rest, " ")
	id, err := parseID(first)
	if err != nil {
		return 0, "", err
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return 0, "", fmt.Errorf("%w: expected an id and text", ErrMissingArgs)
	}
	return id, text, nil
}
