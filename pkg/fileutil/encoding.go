package fileutil

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// Encoding はテキストファイルの文字コード
type Encoding int

const (
	// EncodingAuto はBOM付きUTF-8、UTF-8、Shift-JISの順に判定する
	EncodingAuto Encoding = iota
	EncodingUTF8
	EncodingShiftJIS
)

// String はエンコーディング名を返す
func (e Encoding) String() string {
	switch e {
	case EncodingUTF8:
		return "utf-8"
	case EncodingShiftJIS:
		return "shift-jis"
	}
	return "auto"
}

// ParseEncoding はエンコーディング名を解析する
func ParseEncoding(name string) (Encoding, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "auto":
		return EncodingAuto, nil
	case "utf-8", "utf8":
		return EncodingUTF8, nil
	case "shift-jis", "shift_jis", "sjis", "cp932":
		return EncodingShiftJIS, nil
	}
	return EncodingAuto, fmt.Errorf("unknown encoding: %s (must be auto, utf-8, or shift-jis)", name)
}

// Decode はバイト列をUTF-8文字列に変換する
func Decode(data []byte, enc Encoding) (string, error) {
	if enc == EncodingAuto {
		enc = detect(data)
	}
	var decoded []byte
	var err error
	switch enc {
	case EncodingShiftJIS:
		decoded, _, err = transform.Bytes(japanese.ShiftJIS.NewDecoder(), data)
	default:
		// UTF8BOM のデコーダーは先頭のBOMを取り除く
		decoded, _, err = transform.Bytes(unicode.UTF8BOM.NewDecoder(), data)
	}
	if err != nil {
		return "", fmt.Errorf("failed to decode %s: %w", enc, err)
	}
	return string(decoded), nil
}

// DecodeString はShift-JISかもしれない短い文字列（トラック名など）をUTF-8にする。
// 変換に失敗した場合はそのまま返す
func DecodeString(s string) string {
	if utf8.ValidString(s) {
		return s
	}
	out, _, err := transform.String(japanese.ShiftJIS.NewDecoder(), s)
	if err != nil {
		return s
	}
	return out
}

func detect(data []byte) Encoding {
	if bytes.HasPrefix(data, []byte{0xEF, 0xBB, 0xBF}) || utf8.Valid(data) {
		return EncodingUTF8
	}
	return EncodingShiftJIS
}

// NewReader は r を指定エンコーディングでデコードするReaderを返す。
// EncodingAuto の場合は判定のため全体を読み込む
func NewReader(r io.Reader, enc Encoding) (io.Reader, error) {
	switch enc {
	case EncodingUTF8:
		return transform.NewReader(r, unicode.UTF8BOM.NewDecoder()), nil
	case EncodingShiftJIS:
		return transform.NewReader(r, japanese.ShiftJIS.NewDecoder()), nil
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read text: %w", err)
	}
	text, err := Decode(data, EncodingAuto)
	if err != nil {
		return nil, err
	}
	return strings.NewReader(text), nil
}

// ReadText はファイルを読み込みUTF-8文字列として返す
func ReadText(path string, enc Encoding) (string, error) {
	actual, err := Resolve(path)
	if err != nil {
		return "", err
	}
	data, err := os.ReadFile(actual)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", actual, err)
	}
	return Decode(data, enc)
}
