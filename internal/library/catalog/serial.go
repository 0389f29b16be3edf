package catalog

import (
	"fmt"
	"strconv"
)

const serialDigits = 6

// FormatSerial は B000001 形式
func FormatSerial(k Kind, n uint64) string {
	return fmt.Sprintf("%s%0*d", k.Prefix(), serialDigits, n)
}

// splitSerial はシリアルを末尾の数字列とそれより前に分ける。数字が無ければ false
func splitSerial(serial string) (string, uint64, bool) {
	i := len(serial)
	for i > 0 && serial[i-1] >= '0' && serial[i-1] <= '9' {
		i--
	}
	if i == len(serial) {
		return "", 0, false
	}
	n, err := strconv.ParseUint(serial[i:], 10, 64)
	if err != nil {
		return "", 0, false
	}
	return serial[:i], n, true
}

// trailingNumber はシリアル末尾の数字列を数値として返す。数字が無ければ false
func trailingNumber(serial string) (uint64, bool) {
	_, n, ok := splitSerial(serial)
	return n, ok
}

// kindOfPrefix は採番プレフィックスから種別を引く
func kindOfPrefix(prefix string) (Kind, bool) {
	for _, k := range []Kind{KindBook, KindMovie} {
		if k.Prefix() == prefix {
			return k, true
		}
	}
	return "", false
}

// maxSuffix は既存シリアル群の末尾数字の最大値（カウンタ初期化用）
func maxSuffix(serials []string) uint64 {
	var max uint64
	for _, s := range serials {
		if n, ok := trailingNumber(s); ok && n > max {
			max = n
		}
	}
	return max
}

// maxIssued は k の採番形式（プレフィックス + 数字）に一致するシリアルの最大番号
func maxIssued(k Kind, serials []string) uint64 {
	var max uint64
	for _, s := range serials {
		if prefix, n, ok := splitSerial(s); ok && prefix == k.Prefix() && n > max {
			max = n
		}
	}
	return max
}
