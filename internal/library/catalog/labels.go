package catalog

import (
	"bytes"
	"context"
	"encoding/csv"
	"io"
	"strings"

	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/transform"

	"LIBRA-backend/internal/platform/apierr"
)

// ラベル CSV の文字コード
const (
	EncodingUTF8     = "utf-8"
	EncodingShiftJIS = "sjis"
)

const maxLabels = MaxAllocate

var labelHeader = []string{"serial_no", "name", "author", "category"}

// LabelFile は背ラベル印刷用の CSV
type LabelFile struct {
	ContentType string
	Body        []byte
}

// Labels は指定シリアルの背ラベル CSV を作る。
// ラベルプリンタのドライバ向けに Shift_JIS も出せる（CP932 相当）。
func (s *Service) Labels(ctx context.Context, q LabelsQuery) (*LabelFile, error) {
	serials := dedupe(q.Serials)
	if len(serials) == 0 {
		return nil, apierr.Invalid("serial is required")
	}
	if len(serials) > maxLabels {
		return nil, apierr.Invalid("too many labels")
	}
	enc := strings.ToLower(strings.TrimSpace(q.Encoding))
	if enc == "" {
		enc = EncodingUTF8
	}
	if enc != EncodingUTF8 && enc != EncodingShiftJIS {
		return nil, apierr.Invalid("encoding must be utf-8 or sjis")
	}

	copies, err := s.store.listBySerials(ctx, serials)
	if err != nil {
		return nil, apierr.Storage(err)
	}
	if len(copies) != len(serials) {
		found := make(map[string]struct{}, len(copies))
		for _, c := range copies {
			found[c.SerialNo] = struct{}{}
		}
		for _, sn := range serials {
			if _, ok := found[sn]; !ok {
				return nil, apierr.NotFound("book not found: " + sn)
			}
		}
	}

	var b bytes.Buffer
	if err := writeLabelCSV(&b, enc, copies); err != nil {
		return nil, apierr.Invalid("label text cannot be encoded: " + err.Error())
	}
	ct := "text/csv; charset=utf-8"
	if enc == EncodingShiftJIS {
		ct = "text/csv; charset=Shift_JIS"
	}
	return &LabelFile{ContentType: ct, Body: b.Bytes()}, nil
}

func writeLabelCSV(out io.Writer, enc string, copies []Copy) error {
	var tw *transform.Writer
	if enc == EncodingShiftJIS {
		tw = transform.NewWriter(out, japanese.ShiftJIS.NewEncoder())
		out = tw
	}
	w := csv.NewWriter(out)
	if err := w.Write(labelHeader); err != nil {
		return err
	}
	for _, c := range copies {
		if err := w.Write([]string{c.SerialNo, c.Name, c.Author, c.Category}); err != nil {
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return err
	}
	if tw != nil {
		return tw.Close()
	}
	return nil
}

func dedupe(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, v := range in {
		// serial=B000001,B000002 の形も受ける
		for _, p := range strings.Split(v, ",") {
			p = strings.TrimSpace(p)
			if p == "" {
				continue
			}
			if _, ok := seen[p]; ok {
				continue
			}
			seen[p] = struct{}{}
			out = append(out, p)
		}
	}
	return out
}
