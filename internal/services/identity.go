package services

import (
	"regexp"
	"strconv"
	"strings"

	"equipment-manager/internal/entities"

	"github.com/google/uuid"
)

const serialKeyPrefix = "SERIAL_"

var (
	whitespaceRun   = regexp.MustCompile(`\s+`)
	unsafeKeyRunes  = regexp.MustCompile(`[^a-zA-Z0-9_-]+`)
	unsafeDocIDRune = regexp.MustCompile(`[^a-zA-Z0-9_-]`)
	underscoreRun   = regexp.MustCompile(`_+`)
)

// DeriveID строит ключ записи из серийного номера.
// Пустой серийный номер дает пустую строку. Номера с одинаковым ключом
// документа всегда дают одинаковый ключ записи, поэтому такие записи
// получают суффикс коллизии.
func DeriveID(serial string) string {
	s := strings.TrimSpace(serial)
	if s == "" {
		return ""
	}
	s = whitespaceRun.ReplaceAllString(s, "_")
	s = unsafeKeyRunes.ReplaceAllString(s, "_")
	s = underscoreRun.ReplaceAllString(s, "_")
	return serialKeyPrefix + strings.ToUpper(s)
}

// SanitizeForDocID - ключ документа в основном хранилище. Регистр сохраняется.
func SanitizeForDocID(serial string) string {
	s := strings.TrimSpace(serial)
	s = unsafeDocIDRune.ReplaceAllString(s, "_")
	return underscoreRun.ReplaceAllString(s, "_")
}

// NormalizeSerial используется для сравнения серийных номеров между коллекциями.
func NormalizeSerial(serial string) string {
	return strings.ToUpper(strings.TrimSpace(serial))
}

// ResolveIDs делает ключи уникальными в пределах списка. Запись сохраняет
// свой непустой ключ, если он еще не занят; иначе ключ выводится из серийного
// номера (или генерируется случайно) с суффиксом _2, _3, ... при коллизии.
// Возвращает карту переименований старый ключ -> новый ключ.
func ResolveIDs(list []*entities.Equipment) map[string]string {
	renames := make(map[string]string)
	used := make(map[string]struct{}, len(list))

	for _, eq := range list {
		if eq == nil {
			continue
		}
		if eq.ID != "" {
			if _, taken := used[eq.ID]; !taken {
				used[eq.ID] = struct{}{}
				continue
			}
		}

		prev := eq.ID
		base := DeriveID(eq.SerialNo)
		if base == "" {
			base = uuid.NewString()
		}
		next := uniqueKey(base, used)
		used[next] = struct{}{}
		eq.ID = next

		if prev != "" && prev != next {
			renames[prev] = next
		}
	}
	return renames
}

func uniqueKey(base string, used map[string]struct{}) string {
	if _, taken := used[base]; !taken {
		return base
	}
	for n := 2; ; n++ {
		candidate := base + "_" + strconv.Itoa(n)
		if _, taken := used[candidate]; !taken {
			return candidate
		}
	}
}

// DocKeyFor - ключ документа записи в основном хранилище. Для записи с
// суффиксом коллизии (SERIAL_X_2) суффикс переносится и в ключ документа,
// чтобы дубликат не слился с первой записью.
func DocKeyFor(eq *entities.Equipment) string {
	key := SanitizeForDocID(eq.SerialNo)
	base := DeriveID(eq.SerialNo)
	if base != "" && strings.HasPrefix(eq.ID, base+"_") {
		suffix := eq.ID[len(base):]
		if _, err := strconv.Atoi(suffix[1:]); err == nil {
			key += suffix
		}
	}
	return key
}
