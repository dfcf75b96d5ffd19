package csv

import (
	"bufio"
	"bytes"
	"io"
	"maps"
	"slices"
)

const rewriteChunk = 64 * 1024

// rewriter is an io.Reader that replaces every occurrence of pat with repl
// while streaming. The last len(pat)-1 bytes of each processed block are held
// back and prepended to the next block so matches spanning a chunk boundary
// are still found.
type rewriter struct {
	br    *bufio.Reader
	pat   []byte
	repl  []byte
	carry []byte
	chunk []byte
	buf   bytes.Buffer
	eof   bool
}

func newRewriter(r io.Reader, pat, repl []byte) *rewriter {
	keep := len(pat) - 1
	if keep < 0 {
		keep = 0
	}
	return &rewriter{
		br:    bufio.NewReaderSize(r, rewriteChunk),
		pat:   pat,
		repl:  repl,
		carry: make([]byte, 0, keep),
		chunk: make([]byte, rewriteChunk),
	}
}

// withReplacements chains one rewriter per pair, in pattern order. Pairs with
// an empty pattern or an identical replacement are skipped.
func withReplacements(r io.Reader, pairs map[string]string) io.Reader {
	for _, pat := range slices.Sorted(maps.Keys(pairs)) {
		repl := pairs[pat]
		if pat == "" || pat == repl {
			continue
		}
		r = newRewriter(r, []byte(pat), []byte(repl))
	}
	return r
}

func (rw *rewriter) Read(p []byte) (int, error) {
	for rw.buf.Len() == 0 {
		if rw.eof {
			return 0, io.EOF
		}
		if err := rw.fill(); err != nil {
			return 0, err
		}
	}
	return rw.buf.Read(p)
}

// fill reads one chunk, rewrites it and moves everything except the carry
// into buf. At EOF the carry is flushed too.
func (rw *rewriter) fill() error {
	n, err := rw.br.Read(rw.chunk)
	if n > 0 {
		block := append(rw.carry, rw.chunk[:n]...)
		block = bytes.ReplaceAll(block, rw.pat, rw.repl)

		keep := len(rw.pat) - 1
		if len(block) > keep {
			rw.buf.Write(block[:len(block)-keep])
			block = block[len(block)-keep:]
		}
		rw.carry = append(make([]byte, 0, keep), block...)
	}
	switch {
	case err == io.EOF:
		rw.buf.Write(rw.carry)
		rw.carry = rw.carry[:0]
		rw.eof = true
	case err != nil:
		return err
	}
	return nil
}
