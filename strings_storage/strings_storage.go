/*
 Ordered line storage, the output buffer of the G-code plotter
*/

package strings_storage

import (
	"bufio"
	"io"
	"strings"
)

type StringsStorage interface {
	Supplier
	Consumer
}

type Supplier interface {
	String() string
	Len() int
}

type Consumer interface {
	Accept(string)
}

type Storage struct {
	index   int
	strings []string
}

func NewStorage() *Storage {
	return &Storage{strings: make([]string, 0, 64)}
}

// String returns the next stored line, "" after the last one
func (storage *Storage) String() string {
	if storage.index >= len(storage.strings) {
		return ""
	}
	storage.index++
	return storage.strings[storage.index-1]
}

// empty strings are discarded
func (storage *Storage) Accept(s string) {
	if len(s) > 0 {
		storage.strings = append(storage.strings, s)
	}
}

func (storage *Storage) AcceptAll(lines []string) {
	for _, s := range lines {
		storage.Accept(s)
	}
}

func (storage *Storage) Len() int {
	return len(storage.strings)
}

func (storage *Storage) ResetPos() {
	storage.index = 0
}

func (storage *Storage) Empty() {
	storage.index = 0
	storage.strings = storage.strings[:0]
}

func (storage *Storage) PeekPos() int {
	return storage.index
}

func (storage *Storage) ToArray() []string {
	return append([]string(nil), storage.strings...)
}

// Filter keeps the lines for which keep returns true. keep also sees the
// following line, "" for the last one.
func (storage *Storage) Filter(keep func(line, next string) bool) {
	out := storage.strings[:0]
	for i, s := range storage.strings {
		next := ""
		if i+1 < len(storage.strings) {
			next = storage.strings[i+1]
		}
		if keep(s, next) {
			out = append(out, s)
		}
	}
	storage.strings = out
	storage.index = min(storage.index, len(out))
}

// Join concatenates the lines, every line ends with terminator
func (storage *Storage) Join(terminator string) string {
	var sb strings.Builder
	for _, s := range storage.strings {
		sb.WriteString(s)
		sb.WriteString(terminator)
	}
	return sb.String()
}

func (storage *Storage) WriteLines(w io.Writer, terminator string) (int64, error) {
	bw := bufio.NewWriter(w)
	var n int64
	for _, s := range storage.strings {
		k, err := bw.WriteString(s)
		n += int64(k)
		if err != nil {
			return n, err
		}
		k, err = bw.WriteString(terminator)
		n += int64(k)
		if err != nil {
			return n, err
		}
	}
	return n, bw.Flush()
}
