package jptext

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/ikawaha/kagome-dict/ipa"
	"github.com/ikawaha/kagome/v2/tokenizer"
)

// KatakanaToHiragana remaps the katakana block onto hiragana
// character by character; everything else passes through.
func KatakanaToHiragana(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r >= 0x30A1 && r <= 0x30F6 {
			b.WriteRune(r - 0x60)
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

var hiraganaRe = regexp.MustCompile(`[ぁ-ゖー]+`)

// ExtractHiragana pulls the kana chunks out of a mixed string and
// returns them joined as hiragana. Empty when the string is pure kanji.
func ExtractHiragana(s string) string {
	if s == "" {
		return ""
	}
	x := KatakanaToHiragana(NormalizeSpace(FoldWidth(s)))
	return strings.Join(hiraganaRe.FindAllString(x, -1), "")
}

// noiseWords are tokens that carry no search value in a nursery name.
var noiseWords = []string{
	"横浜市", "港北区",
	"保育園", "保育えん", "ほいくえん",
	"保育所", "ほいくしょ",
	"こども園", "認定こども園",
	"幼稚園", "ようちえん",
	"小規模", "事業所内", "家庭的",
	"分園", "本園",
	"ナーサリー", "にゅーさりー",
	"キッズ", "きっず",
	"園", "えん",
}

// Go's \w is ASCII-only, so word characters and the CJK range are spelled out.
var symbolRe = regexp.MustCompile(`[^0-9A-Za-z_ぁ-ゖァ-ヶー一-龯々〆 ]+`)

// StripNoise removes separators, annotations and generic facility-type
// words from a name, leaving the distinctive part for kana generation.
func StripNoise(s string) string {
	x := NormalizeSpace(FoldWidth(s))
	for _, sep := range []string{"・", "／", "/", "（", "）", "(", ")"} {
		x = strings.ReplaceAll(x, sep, " ")
	}
	x = symbolRe.ReplaceAllString(x, " ")
	x = NormalizeSpace(x)
	for _, w := range noiseWords {
		x = strings.ReplaceAll(x, w, " ")
	}
	return NormalizeSpace(x)
}

// nameKanaDict overrides automatic reading generation for facility
// names the tokenizer gets wrong. Exact match on the raw name.
var nameKanaDict = map[string]string{
	"ベネッセ 日吉保育園":   "べねっせ ひよし",
	"ベネッセ　日吉保育園":   "べねっせ ひよし",
	"ベネッセ 新横浜保育園":  "べねっせ しんよこはま",
	"ベネッセ　新横浜保育園":  "べねっせ しんよこはま",
}

// stationKanaDict maps station base names (no 駅 suffix) to readings.
// Checked before the tokenizer because short station names are exactly
// where dictionary-driven morphology misreads.
var stationKanaDict = map[string]string{
	"日吉":    "ひよし",
	"綱島":    "つなしま",
	"大倉山":   "おおくらやま",
	"菊名":    "きくな",
	"新横浜":   "しんよこはま",
	"妙蓮寺":   "みょうれんじ",
	"新羽":    "にっぱ",
	"北新横浜":  "きたしんよこはま",
	"高田":    "たかた",
	"東山田":   "ひがしやまた",
	"日吉本町":  "ひよしほんちょう",
	"岸根公園":  "きしねこうえん",
	"小机":    "こづくえ",
}

var (
	stationKeysOnce sync.Once
	stationKeys     []string
)

// stationDictKeys returns the dictionary keys longest-first so substring
// matching is deterministic and prefers the more specific station.
func stationDictKeys() []string {
	stationKeysOnce.Do(func() {
		for k := range stationKanaDict {
			stationKeys = append(stationKeys, k)
		}
		sort.Slice(stationKeys, func(i, j int) bool {
			if len(stationKeys[i]) != len(stationKeys[j]) {
				return len(stationKeys[i]) > len(stationKeys[j])
			}
			return stationKeys[i] < stationKeys[j]
		})
	})
	return stationKeys
}

// Reader produces hiragana readings for kanji text. It wraps the kagome
// tokenizer, which is expensive to build, so one Reader is shared per run.
type Reader struct {
	tok *tokenizer.Tokenizer
}

// NewReader builds a Reader backed by the IPA dictionary.
func NewReader() (*Reader, error) {
	t, err := tokenizer.New(ipa.Dict(), tokenizer.OmitBosEos())
	if err != nil {
		return nil, fmt.Errorf("failed to build tokenizer: %w", err)
	}
	return &Reader{tok: t}, nil
}

// ReadingOf returns the hiragana reading of text, or "" when the
// tokenizer cannot read every segment. Partial readings are worse than
// none for search, so a single unreadable token blanks the result.
func (r *Reader) ReadingOf(text string) string {
	if text == "" {
		return ""
	}
	var b strings.Builder
	for _, tk := range r.tok.Tokenize(text) {
		reading, ok := tk.Reading()
		if !ok || reading == "" || reading == "*" {
			return ""
		}
		b.WriteString(reading)
	}
	return KatakanaToHiragana(b.String())
}

// BuildNameKana derives a search reading for a facility name: the
// override dictionary wins, then kana already present in the name, then
// the tokenizer. Long-vowel marks and spaces are dropped for search.
func BuildNameKana(name string, r *Reader) string {
	if name == "" {
		return ""
	}
	if v, ok := nameKanaDict[name]; ok {
		return strings.ReplaceAll(v, " ", "")
	}
	base := StripNoise(name)
	kana := ExtractHiragana(base)
	if kana == "" && r != nil {
		kana = r.ReadingOf(base)
	}
	kana = strings.ReplaceAll(kana, "ー", "")
	return strings.ReplaceAll(kana, " ", "")
}

// BuildStationKana derives a reading for a station name. Dictionary
// first (exact, then substring), kana extraction, tokenizer last.
func BuildStationKana(station string, r *Reader) string {
	if station == "" {
		return ""
	}
	s := NormalizeSpace(FoldWidth(station))
	s = strings.ReplaceAll(s, "駅", "")
	s = StripParens(s)
	if v, ok := stationKanaDict[s]; ok {
		return strings.ReplaceAll(v, " ", "")
	}
	if kana := strings.ReplaceAll(ExtractHiragana(s), "ー", ""); kana != "" {
		return strings.ReplaceAll(kana, " ", "")
	}
	for _, k := range stationDictKeys() {
		if strings.Contains(s, k) {
			return strings.ReplaceAll(stationKanaDict[k], " ", "")
		}
	}
	if r != nil {
		if kana := r.ReadingOf(s); kana != "" {
			return strings.ReplaceAll(strings.ReplaceAll(kana, "ー", ""), " ", "")
		}
	}
	return ""
}
