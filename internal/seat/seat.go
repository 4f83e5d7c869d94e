// Package seat 座位字母、座位圖與座位帳（Ledger）的純函式，不存取資料庫。
package seat

import (
	"fmt"
	"strconv"
	"strings"

	"airport-booking/internal/model"
	apperrors "airport-booking/pkg/app_errors"
)

const (
	// Aisle 座位圖中的走道標記
	Aisle = "_"
	// MaxSeatsInRow 座位字母只使用 A-Z
	MaxSeatsInRow = 26
)

// Alphabet 回傳每排有效的座位字母：A 開始的前 N 個字母
func Alphabet(seatsInRow int) []string {
	if seatsInRow > MaxSeatsInRow {
		seatsInRow = MaxSeatsInRow
	}
	letters := make([]string, 0, max(seatsInRow, 0))
	for i := 0; i < seatsInRow; i++ {
		letters = append(letters, string(rune('A'+i)))
	}
	return letters
}

func Normalize(seat string) string {
	return strings.ToUpper(strings.TrimSpace(seat))
}

func Label(row int, seat string) string {
	return strconv.Itoa(row) + seat
}

// Validate 檢查 row 與 seat 是否在飛機的實際範圍內，回傳大寫的座位字母。
// 超出範圍時回傳包裝 ErrSeatOutOfRange 的 FieldError，row 與 seat 各自列出有效範圍。
func Validate(airplane *model.Airplane, row int, seat string) (string, error) {
	normalized := Normalize(seat)
	fields := apperrors.FieldErrors{}

	if row < 1 || row > airplane.Rows {
		fields.Add("row", fmt.Sprintf("row must be between 1 and %d", airplane.Rows))
	}
	if !inAlphabet(normalized, airplane.SeatsInRow) {
		letters := Alphabet(airplane.SeatsInRow)
		if len(letters) == 0 {
			fields.Add("seat", "airplane has no seats")
		} else {
			fields.Add("seat", fmt.Sprintf("seat must be between A and %s", letters[len(letters)-1]))
		}
	}

	if len(fields) > 0 {
		return "", &apperrors.FieldError{Kind: apperrors.ErrSeatOutOfRange, Fields: fields}
	}
	return normalized, nil
}

func inAlphabet(seat string, seatsInRow int) bool {
	if len(seat) != 1 {
		return false
	}
	idx := int(seat[0]) - 'A'
	return idx >= 0 && idx < min(seatsInRow, MaxSeatsInRow)
}

// Layout 座位圖（僅供顯示）：
// 3 座以下無走道；4-6 座在 ceil(n/2) 之後一條走道（6 座為 A B C _ D E F）；
// 7 座以上兩條走道，左右兩側各 n/3 座。
func Layout(seatsInRow int) []string {
	letters := Alphabet(seatsInRow)
	n := len(letters)

	var aisles []int
	switch {
	case n <= 3:
	case n <= 6:
		aisles = []int{(n + 1) / 2}
	default:
		side := n / 3
		aisles = []int{side, n - side}
	}

	layout := make([]string, 0, n+len(aisles))
	next := 0
	for i, letter := range letters {
		if next < len(aisles) && i == aisles[next] {
			layout = append(layout, Aisle)
			next++
		}
		layout = append(layout, letter)
	}
	return layout
}
