package service

import (
	"strconv"

	"github.com/cespare/xxhash/v2"

	"github.com/okian/boared/internal/domain/model"
)

// fingerprint hashes everything a replay depends on. Two histories with the
// same fingerprint produce the same ratings and rows.
func fingerprint(members []string, sessions []model.Session) uint64 {
	d := xxhash.New()
	buf := make([]byte, 0, 64)
	for _, m := range members {
		_, _ = d.WriteString(m)
		_, _ = d.Write([]byte{0})
	}
	_, _ = d.Write([]byte{1})
	for _, s := range sessions {
		buf = buf[:0]
		buf = append(buf, s.ID...)
		buf = append(buf, 0)
		buf = s.Date.AppendFormat(buf, model.DateLayout)
		buf = append(buf, 0)
		_, _ = d.Write(buf)
		for _, r := range s.Results {
			buf = buf[:0]
			buf = append(buf, r.Member...)
			buf = append(buf, 0)
			buf = strconv.AppendInt(buf, int64(r.Place), 10)
			buf = append(buf, 0)
			buf = strconv.AppendFloat(buf, r.Score, 'g', -1, 64)
			buf = append(buf, 0)
			_, _ = d.Write(buf)
		}
		_, _ = d.Write([]byte{1})
	}
	return d.Sum64()
}
