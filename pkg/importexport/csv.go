// Package importexport reads and writes wordbook cards as CSV.
package importexport

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"
	"unicode"

	"github.com/samber/lo"
	"github.com/smith3v/vocab-srs/pkg/db"
	"gorm.io/datatypes"
)

type Field string

const (
	FieldHeadword     Field = "headword"
	FieldMeaningZh    Field = "meaning_zh"
	FieldMeaningEn    Field = "meaning_en"
	FieldPartOfSpeech Field = "part_of_speech"
	FieldPhonetic     Field = "phonetic"
	FieldNotes        Field = "notes"
	FieldTags         Field = "tags"
	FieldSynonyms     Field = "synonyms"
	FieldAntonyms     Field = "antonyms"
	FieldExamples     Field = "examples"
)

// Columns is the canonical column order, used for export and for files
// without a header row.
var Columns = []Field{
	FieldHeadword, FieldMeaningZh, FieldMeaningEn, FieldPartOfSpeech, FieldPhonetic,
	FieldNotes, FieldTags, FieldSynonyms, FieldAntonyms, FieldExamples,
}

// fieldAliases lists the accepted header names per field, in priority order.
var fieldAliases = []struct {
	field   Field
	aliases []string
}{
	{FieldHeadword, []string{"headword", "word", "term", "vocabulary"}},
	{FieldPhonetic, []string{"phonetic", "ipa", "pronunciation", "kk"}},
	{FieldPartOfSpeech, []string{"part_of_speech", "pos", "partofspeech", "詞性"}},
	{FieldMeaningZh, []string{"meaning_zh", "chinese", "zh", "中文", "translation"}},
	{FieldMeaningEn, []string{"meaning_en", "english", "definition", "en"}},
	{FieldNotes, []string{"notes", "note", "memo"}},
	{FieldTags, []string{"tags", "tag"}},
	{FieldSynonyms, []string{"synonyms", "synonym", "syn"}},
	{FieldAntonyms, []string{"antonyms", "antonym", "ant"}},
	{FieldExamples, []string{"examples", "example", "sentence"}},
}

const listSeparator = "|"

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

const maxDelimiterSampleRecords = 20

// Row is one parsed CSV line in the fixed internal shape.
type Row struct {
	Headword     string
	Phonetic     string
	PartOfSpeech string
	MeaningZh    string
	MeaningEn    string
	Notes        string
	Tags         []string
	Synonyms     []string
	Antonyms     []string
	Examples     []string
}

func (r Row) meaning() (db.Meaning, bool) {
	m := db.Meaning{
		PartOfSpeech: r.PartOfSpeech,
		MeaningZh:    r.MeaningZh,
		MeaningEn:    r.MeaningEn,
		Synonyms:     r.Synonyms,
		Antonyms:     r.Antonyms,
		Examples:     r.Examples,
	}
	empty := m.PartOfSpeech == "" && m.MeaningZh == "" && m.MeaningEn == "" &&
		len(m.Synonyms) == 0 && len(m.Antonyms) == 0 && len(m.Examples) == 0
	return m, !empty
}

// Entry is one card worth of rows: repeated headwords in a file become
// additional meanings of the same card.
type Entry struct {
	Headword string
	Phonetic string
	Notes    string
	Tags     []string
	Meanings []db.Meaning
}

type ParseResult struct {
	Entries []Entry
	Skipped int
}

// columnMap maps a record index to its field.
type columnMap map[int]Field

// resolveHeader matches a header row against the alias lists. It reports
// false when no headword column is recognised.
func resolveHeader(record []string) (columnMap, bool) {
	cols := columnMap{}
	claimed := map[Field]bool{}
	for i, name := range record {
		key := normalizeHeader(name)
		for _, fa := range fieldAliases {
			if claimed[fa.field] || !lo.Contains(fa.aliases, key) {
				continue
			}
			cols[i] = fa.field
			claimed[fa.field] = true
			break
		}
	}
	return cols, claimed[FieldHeadword]
}

func canonicalColumns() columnMap {
	cols := columnMap{}
	for i, f := range Columns {
		cols[i] = f
	}
	return cols
}

func normalizeHeader(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	name = strings.NewReplacer(" ", "_", "-", "_").Replace(name)
	return name
}

func ParseCardsCSV(data []byte) (ParseResult, error) {
	data = bytes.TrimPrefix(data, utf8BOM)
	delimiter := detectCSVDelimiter(data)

	reader := csv.NewReader(bytes.NewReader(data))
	reader.Comma = delimiter
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	var (
		result  ParseResult
		cols    columnMap
		index   = map[string]int{}
		checked bool
	)

	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return ParseResult{}, err
		}
		if isEmptyCSVRecord(record) {
			result.Skipped++
			continue
		}
		if !checked {
			checked = true
			if header, ok := resolveHeader(record); ok {
				cols = header
				continue
			}
			cols = canonicalColumns()
		}

		row := cols.row(record)
		if row.Headword == "" {
			result.Skipped++
			continue
		}
		key := strings.ToLower(row.Headword)
		pos, seen := index[key]
		if !seen {
			pos = len(result.Entries)
			index[key] = pos
			result.Entries = append(result.Entries, Entry{Headword: row.Headword})
		}
		mergeRow(&result.Entries[pos], row)
	}

	return result, nil
}

func (cols columnMap) row(record []string) Row {
	var r Row
	for i, value := range record {
		field, ok := cols[i]
		if !ok {
			continue
		}
		value = strings.TrimSpace(value)
		switch field {
		case FieldHeadword:
			r.Headword = value
		case FieldPhonetic:
			r.Phonetic = value
		case FieldPartOfSpeech:
			r.PartOfSpeech = value
		case FieldMeaningZh:
			r.MeaningZh = value
		case FieldMeaningEn:
			r.MeaningEn = value
		case FieldNotes:
			r.Notes = value
		case FieldTags:
			r.Tags = splitList(value)
		case FieldSynonyms:
			r.Synonyms = splitList(value)
		case FieldAntonyms:
			r.Antonyms = splitList(value)
		case FieldExamples:
			r.Examples = splitList(value)
		}
	}
	return r
}

func mergeRow(e *Entry, r Row) {
	if e.Phonetic == "" {
		e.Phonetic = r.Phonetic
	}
	if e.Notes == "" {
		e.Notes = r.Notes
	}
	e.Tags = lo.Uniq(append(e.Tags, r.Tags...))
	if m, ok := r.meaning(); ok {
		e.Meanings = append(e.Meanings, m)
	}
}

func splitList(value string) []string {
	if value == "" {
		return nil
	}
	parts := lo.Map(strings.Split(value, listSeparator), func(p string, _ int) string {
		return strings.TrimSpace(p)
	})
	return lo.Filter(parts, func(p string, _ int) bool { return p != "" })
}

func detectCSVDelimiter(data []byte) rune {
	candidates := []rune{',', '\t', ';'}
	bestDelimiter := candidates[0]
	bestScore := -1

	for _, delimiter := range candidates {
		score, err := scoreDelimiter(data, delimiter, maxDelimiterSampleRecords)
		if err != nil {
			continue
		}
		if score > bestScore {
			bestScore = score
			bestDelimiter = delimiter
		}
	}

	if bestScore <= 0 {
		return ','
	}
	return bestDelimiter
}

// scoreDelimiter counts how many sampled records agree on the most common
// multi-column width.
func scoreDelimiter(data []byte, delimiter rune, maxRecords int) (int, error) {
	reader := csv.NewReader(bytes.NewReader(data))
	reader.Comma = delimiter
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	counts := make(map[int]int)
	recordsSeen := 0

	for recordsSeen < maxRecords {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return 0, err
		}
		if isEmptyCSVRecord(record) {
			continue
		}
		recordsSeen++

		if len(record) < 2 {
			continue
		}
		counts[len(record)]++
	}

	best := 0
	for _, score := range counts {
		if score > best {
			best = score
		}
	}
	return best, nil
}

func isEmptyCSVRecord(record []string) bool {
	for _, field := range record {
		if strings.TrimSpace(field) != "" {
			return false
		}
	}
	return true
}

// BuildExportCSV writes a BOM, the canonical header and one CRLF row per
// meaning. Cards without meanings still get one row.
func BuildExportCSV(cards []db.Card) ([]byte, error) {
	var buf bytes.Buffer
	if _, err := buf.Write(utf8BOM); err != nil {
		return nil, err
	}

	writer := csv.NewWriter(&buf)
	writer.UseCRLF = true

	header := lo.Map(Columns, func(f Field, _ int) string { return string(f) })
	if err := writer.Write(header); err != nil {
		return nil, err
	}

	for _, card := range cards {
		meanings := []db.Meaning(card.Meanings)
		if len(meanings) == 0 {
			meanings = []db.Meaning{{}}
		}
		for i, m := range meanings {
			notes, tags, phonetic := "", "", ""
			if i == 0 {
				notes = card.Notes
				tags = joinList(card.Tags)
				phonetic = card.Phonetic
			}
			record := []string{
				card.Headword,
				m.MeaningZh,
				m.MeaningEn,
				m.PartOfSpeech,
				phonetic,
				notes,
				tags,
				joinList(m.Synonyms),
				joinList(m.Antonyms),
				joinList(m.Examples),
			}
			if err := writer.Write(record); err != nil {
				return nil, err
			}
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func joinList(values []string) string {
	return strings.Join(values, listSeparator)
}

// ExportFilename builds wordbook-<name>-YYYYMMDD.csv with the name reduced to
// letters, digits and dashes.
func ExportFilename(wordbookName string, now time.Time) string {
	slug := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return unicode.ToLower(r)
		}
		return '-'
	}, strings.TrimSpace(wordbookName))
	slug = strings.Trim(collapseDashes(slug), "-")
	if slug == "" {
		slug = "cards"
	}
	return fmt.Sprintf("wordbook-%s-%s.csv", slug, now.Format("20060102"))
}

func collapseDashes(s string) string {
	for strings.Contains(s, "--") {
		s = strings.ReplaceAll(s, "--", "-")
	}
	return s
}

// toCard fills the card fields an import owns.
func (e Entry) toCard(card *db.Card) {
	card.Headword = e.Headword
	card.Phonetic = e.Phonetic
	card.Notes = e.Notes
	card.Tags = datatypes.NewJSONSlice(lo.Ternary(e.Tags == nil, []string{}, e.Tags))
	card.Meanings = datatypes.NewJSONSlice(lo.Ternary(e.Meanings == nil, []db.Meaning{}, e.Meanings))
}
