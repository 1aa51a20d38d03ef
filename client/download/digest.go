package download

import (
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"hash"
	"strings"
)

// digest hashes the media as it is written and compares the sum with the
// expected value, given in hex or standard base64.
type digest struct {
	h    hash.Hash
	want string
}

func (d *digest) Write(p []byte) (int, error) {
	return d.h.Write(p)
}

func (d *digest) check() error {
	if d == nil {
		return nil
	}

	sum := d.h.Sum(nil)
	got := hex.EncodeToString(sum)

	if strings.EqualFold(d.want, got) || d.want == base64.StdEncoding.EncodeToString(sum) {
		return nil
	}

	return &Error{Err: ErrChecksumMismatch, Detail: fmt.Sprintf("want %s, have %s", d.want, got)}
}
