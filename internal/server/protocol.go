package server

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/lawnchairsociety/dungeongen/internal/export"
)

const (
	cmdGenerate = "generate"
	cmdQuit     = "quit"
)

var errQuit = errors.New("client quit")

// generateRequest is a parsed "generate <width> <height> [seed]" line.
type generateRequest struct {
	Width   int
	Height  int
	Seed    int64
	HasSeed bool
}

// response is the JSON reply to one request: a map document, optionally
// with its stored ID, or an error.
type response struct {
	*export.MapDocument
	MapID int64  `json:"map_id,omitempty"`
	Error string `json:"error,omitempty"`
}

func errorResponse(format string, args ...any) response {
	return response{Error: fmt.Sprintf(format, args...)}
}

// parseLine splits a request line into a command. It returns errQuit for
// "quit".
func parseLine(line string) (generateRequest, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return generateRequest{}, errors.New("empty request")
	}

	switch strings.ToLower(fields[0]) {
	case cmdQuit:
		return generateRequest{}, errQuit
	case cmdGenerate:
		return parseGenerate(fields[1:])
	default:
		return generateRequest{}, fmt.Errorf("unknown command %q (want %s or %s)", fields[0], cmdGenerate, cmdQuit)
	}
}

func parseGenerate(args []string) (generateRequest, error) {
	if len(args) < 2 || len(args) > 3 {
		return generateRequest{}, fmt.Errorf("usage: %s <width> <height> [seed]", cmdGenerate)
	}

	var req generateRequest
	var err error
	if req.Width, err = strconv.Atoi(args[0]); err != nil {
		return generateRequest{}, fmt.Errorf("invalid width %q", args[0])
	}
	if req.Height, err = strconv.Atoi(args[1]); err != nil {
		return generateRequest{}, fmt.Errorf("invalid height %q", args[1])
	}
	if len(args) == 3 {
		if req.Seed, err = strconv.ParseInt(args[2], 10, 64); err != nil {
			return generateRequest{}, fmt.Errorf("invalid seed %q", args[2])
		}
		req.HasSeed = true
	}

	return req, nil
}
