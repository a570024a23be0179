package pdf

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/jhoicas/pvp-api/internal/application/ingest"
)

var _ ingest.TextExtractor = (*PdfcpuTextExtractor)(nil)

// PdfcpuTextExtractor lee el contenido de cada página con pdfcpu y recoge las cadenas
// de los operadores de texto (Tj, TJ, ', "). No hace OCR: un PDF escaneado devuelve "".
type PdfcpuTextExtractor struct {
	maxPages int
}

// NewPdfcpuTextExtractor construye el extractor. maxPages <= 0 lee todas las páginas.
func NewPdfcpuTextExtractor(maxPages int) *PdfcpuTextExtractor {
	return &PdfcpuTextExtractor{maxPages: maxPages}
}

// ExtractText devuelve el texto concatenado de las páginas, una línea por página.
func (e *PdfcpuTextExtractor) ExtractText(ctx context.Context, data []byte) (string, error) {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed

	pctx, err := api.ReadContext(bytes.NewReader(data), conf)
	if err != nil {
		return "", fmt.Errorf("pdf: leer documento: %w", err)
	}
	if err := api.ValidateContext(pctx); err != nil {
		return "", fmt.Errorf("pdf: validar documento: %w", err)
	}

	pages := pctx.PageCount
	if e.maxPages > 0 && pages > e.maxPages {
		pages = e.maxPages
	}

	var sb strings.Builder
	for p := 1; p <= pages; p++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		r, err := pdfcpu.ExtractPageContent(pctx, p)
		if err != nil {
			return "", fmt.Errorf("pdf: contenido página %d: %w", p, err)
		}
		if r == nil {
			continue
		}
		content, err := io.ReadAll(r)
		if err != nil {
			return "", fmt.Errorf("pdf: leer página %d: %w", p, err)
		}
		sb.WriteString(ContentText(content))
		sb.WriteByte('\n')
	}
	return sb.String(), nil
}

// ContentText recoge las cadenas literales de un flujo de contenido PDF.
// Los trozos de un mismo array TJ se unen sin separador; el resto, con un espacio.
func ContentText(content []byte) string {
	var sb strings.Builder
	inArray := false
	for i := 0; i < len(content); i++ {
		switch c := content[i]; c {
		case '%':
			for i < len(content) && content[i] != '\n' && content[i] != '\r' {
				i++
			}
		case '[':
			inArray = true
		case ']':
			if inArray {
				sb.WriteByte(' ')
			}
			inArray = false
		case '(':
			s, next := literalString(content, i+1)
			sb.WriteString(s)
			if !inArray {
				sb.WriteByte(' ')
			}
			i = next
		case '<':
			if i+1 < len(content) && content[i+1] == '<' {
				i++ // diccionario en línea
				continue
			}
			s, next := hexString(content, i+1)
			sb.WriteString(s)
			if !inArray {
				sb.WriteByte(' ')
			}
			i = next
		}
	}
	return strings.Join(strings.Fields(sb.String()), " ")
}

// literalString lee hasta el paréntesis de cierre respetando anidamiento y escapes.
// Devuelve la cadena y el índice del ')' final.
func literalString(b []byte, i int) (string, int) {
	var sb strings.Builder
	depth := 1
	for ; i < len(b); i++ {
		c := b[i]
		switch c {
		case '\\':
			if i+1 >= len(b) {
				return sb.String(), i
			}
			i++
			switch e := b[i]; e {
			case 'n', 'r', 't':
				sb.WriteByte(' ')
			case '(', ')', '\\':
				sb.WriteByte(e)
			default:
				if e >= '0' && e <= '7' {
					v, n := 0, 0
					for n < 3 && i < len(b) && b[i] >= '0' && b[i] <= '7' {
						v = v*8 + int(b[i]-'0')
						i++
						n++
					}
					i--
					if v >= 0x20 && v < 0x7f {
						sb.WriteByte(byte(v))
					}
				}
			}
		case '(':
			depth++
			sb.WriteByte(c)
		case ')':
			depth--
			if depth == 0 {
				return sb.String(), i
			}
			sb.WriteByte(c)
		default:
			sb.WriteByte(c)
		}
	}
	return sb.String(), i
}

// hexString decodifica <...> y conserva sólo los bytes ASCII imprimibles.
func hexString(b []byte, i int) (string, int) {
	var sb strings.Builder
	hi, have := byte(0), false
	for ; i < len(b) && b[i] != '>'; i++ {
		v, ok := hexVal(b[i])
		if !ok {
			continue
		}
		if !have {
			hi, have = v, true
			continue
		}
		if ch := hi<<4 | v; ch >= 0x20 && ch < 0x7f {
			sb.WriteByte(ch)
		}
		have = false
	}
	return sb.String(), i
}

func hexVal(c byte) (byte, bool) {
	switch {
	case c >= '0' && c <= '9':
		return c - '0', true
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10, true
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10, true
	}
	return 0, false
}
