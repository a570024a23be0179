// Package csvstore guarda las tablas de entrada como ficheros CSV en un directorio
// de datos (purchases.csv, ingredient_yields.csv, recipes.csv, recipe_lines.csv,
// category_margins.csv), con las mismas cabeceras que la hoja original.
//
// Las columnas se localizan por cabecera; una columna o fichero ausente equivale a
// valores vacíos. Los números mal formados se leen como NullDecimal inválido.
package csvstore

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/shopspring/decimal"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"

	"github.com/jhoicas/pvp-api/internal/domain/repository"
)

// Nombres de fichero dentro del directorio de datos.
const (
	PurchasesFile       = "purchases.csv"
	YieldsFile          = "ingredient_yields.csv"
	RecipesFile         = "recipes.csv"
	RecipeLinesFile     = "recipe_lines.csv"
	CategoryMarginsFile = "category_margins.csv"
)

// Encoding codificación de los ficheros. Se usa tanto al leer como al escribir.
type Encoding string

const (
	EncodingUTF8   Encoding = "utf-8"
	EncodingLatin1 Encoding = "latin1" // CSV exportados por Excel en Windows
)

// ParseEncoding valida el nombre de codificación de la configuración.
func ParseEncoding(s string) (Encoding, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "utf-8", "utf8":
		return EncodingUTF8, nil
	case "latin1", "latin-1", "cp1252", "windows-1252":
		return EncodingLatin1, nil
	default:
		return "", fmt.Errorf("csvstore: codificación desconocida %q", s)
	}
}

// Store directorio de datos CSV. Serializa lecturas y escrituras con un mutex.
type Store struct {
	dir string
	enc Encoding
	mu  sync.Mutex
}

// New abre (y crea si no existe) el directorio de datos.
func New(dir string, enc Encoding) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("csvstore: crear directorio %s: %w", dir, err)
	}
	switch enc {
	case "":
		enc = EncodingUTF8
	case EncodingUTF8, EncodingLatin1:
	default:
		return nil, fmt.Errorf("csvstore: codificación no soportada %q", enc)
	}
	return &Store{dir: dir, enc: enc}, nil
}

// Dir directorio de datos.
func (s *Store) Dir() string { return s.dir }

// Repositories expone las cinco tablas como puertos de dominio.
func (s *Store) Repositories() repository.Store {
	return repository.Store{
		Purchases:       &PurchaseRepo{s: s},
		Yields:          &YieldRepo{s: s},
		Recipes:         &RecipeRepo{s: s},
		RecipeLines:     &RecipeLineRepo{s: s},
		CategoryMargins: &CategoryMarginRepo{s: s},
	}
}

// record fila CSV indexada por cabecera normalizada.
type record map[string]string

func (r record) get(col string) string { return strings.TrimSpace(r[col]) }

// cells valores en el orden de cols; vacío si la columna no está en r.
func (r record) cells(cols []string) []string {
	out := make([]string, len(cols))
	for i, c := range cols {
		out[i] = r[c]
	}
	return out
}

// readTable lee un fichero completo. Si no existe devuelve cero filas.
func (s *Store) readTable(name string) ([]record, error) {
	f, err := os.Open(filepath.Join(s.dir, name))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("csvstore: abrir %s: %w", name, err)
	}
	defer f.Close()

	cr := s.csvReader(f)
	header, err := readHeader(cr, name)
	if err != nil || header == nil {
		return nil, err
	}

	var rows []record
	for line := 2; ; line++ {
		fields, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("csvstore: %s línea %d: %w", name, line, err)
		}
		if blank(fields) {
			continue
		}
		rec := make(record, len(header))
		for i, h := range header {
			if i < len(fields) {
				rec[h] = fields[i]
			}
		}
		rows = append(rows, rec)
	}
	return rows, nil
}

func (s *Store) csvReader(r io.Reader) *csv.Reader {
	var in io.Reader = bufio.NewReader(r)
	if s.enc == EncodingLatin1 {
		in = transform.NewReader(in, charmap.Windows1252.NewDecoder())
	}
	cr := csv.NewReader(in)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	return cr
}

// readHeader primera fila normalizada (minúsculas, sin BOM). nil si el fichero está vacío.
func readHeader(cr *csv.Reader, name string) ([]string, error) {
	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("csvstore: cabecera de %s: %w", name, err)
	}
	for i, h := range header {
		header[i] = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
	}
	return header, nil
}

// encode pasa texto UTF-8 a la codificación del store.
func (s *Store) encode(name string, b []byte) ([]byte, error) {
	if s.enc != EncodingLatin1 {
		return b, nil
	}
	out, err := charmap.Windows1252.NewEncoder().Bytes(b)
	if err != nil {
		return nil, fmt.Errorf("csvstore: %s: texto no representable en latin1: %w", name, err)
	}
	return out, nil
}

func encodeCSV(name string, header []string, rows [][]string) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if header != nil {
		if err := w.Write(header); err != nil {
			return nil, fmt.Errorf("csvstore: escribir %s: %w", name, err)
		}
	}
	if err := w.WriteAll(rows); err != nil {
		return nil, fmt.Errorf("csvstore: escribir %s: %w", name, err)
	}
	return buf.Bytes(), nil
}

// appendTable añade filas al final sin tocar las existentes. Las columnas siguen
// la cabecera del fichero; las que el fichero no tiene se omiten. Si el fichero
// no existe o está vacío se crea con header.
func (s *Store) appendTable(name string, header []string, rows []record) error {
	path := filepath.Join(s.dir, name)
	cols, endsWithNewline, err := s.fileLayout(path, name)
	if err != nil {
		return err
	}
	if cols == nil {
		out := make([][]string, 0, len(rows))
		for _, r := range rows {
			out = append(out, r.cells(header))
		}
		return s.writeTable(name, header, out)
	}

	out := make([][]string, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.cells(cols))
	}
	text, err := encodeCSV(name, nil, out)
	if err != nil {
		return err
	}
	if !endsWithNewline {
		text = append([]byte("\n"), text...)
	}
	data, err := s.encode(name, text)
	if err != nil {
		return err
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_APPEND, 0)
	if err != nil {
		return fmt.Errorf("csvstore: abrir %s: %w", name, err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return fmt.Errorf("csvstore: añadir a %s: %w", name, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("csvstore: cerrar %s: %w", name, err)
	}
	return nil
}

// fileLayout cabecera del fichero y si termina en salto de línea.
// cols es nil si el fichero no existe o no tiene cabecera.
func (s *Store) fileLayout(path, name string) (cols []string, endsWithNewline bool, err error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("csvstore: abrir %s: %w", name, err)
	}
	defer f.Close()

	st, err := f.Stat()
	if err != nil {
		return nil, false, fmt.Errorf("csvstore: stat %s: %w", name, err)
	}
	if st.Size() == 0 {
		return nil, false, nil
	}
	last := make([]byte, 1)
	if _, err := f.ReadAt(last, st.Size()-1); err != nil {
		return nil, false, fmt.Errorf("csvstore: leer %s: %w", name, err)
	}
	cols, err = readHeader(s.csvReader(f), name)
	if err != nil {
		return nil, false, err
	}
	return cols, last[0] == '\n', nil
}

// writeTable reescribe el fichero completo (temporal + rename).
func (s *Store) writeTable(name string, header []string, rows [][]string) error {
	text, err := encodeCSV(name, header, rows)
	if err != nil {
		return err
	}
	data, err := s.encode(name, text)
	if err != nil {
		return err
	}

	path := filepath.Join(s.dir, name)
	tmp, err := os.CreateTemp(s.dir, name+".*.tmp")
	if err != nil {
		return fmt.Errorf("csvstore: temporal para %s: %w", name, err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("csvstore: escribir %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("csvstore: cerrar %s: %w", name, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("csvstore: reemplazar %s: %w", name, err)
	}
	return nil
}

func blank(fields []string) bool {
	for _, f := range fields {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}

// ParseDecimal interpreta un número de celda. Acepta coma decimal ("0,8").
// Vacío, "nan" o texto no numérico → NullDecimal inválido.
func ParseDecimal(s string) decimal.NullDecimal {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, "nan") {
		return decimal.NullDecimal{}
	}
	if !strings.Contains(s, ".") {
		s = strings.Replace(s, ",", ".", 1)
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(d)
}

// FormatDecimal celda de un NullDecimal: vacía si es inválido.
func FormatDecimal(d decimal.NullDecimal) string {
	if !d.Valid {
		return ""
	}
	return d.Decimal.String()
}
