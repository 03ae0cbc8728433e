package errors

import "fmt"

var (
	// JWT и токены
	ErrInvalidSigningMethod = fmt.Errorf("неверный метод подписи токена")
	ErrInvalidToken         = fmt.Errorf("недопустимый токен")
	ErrTokenExpired         = fmt.Errorf("срок действия токена истёк")

	// Авторизация
	ErrEmptyAuthHeader   = fmt.Errorf("заголовок авторизации отсутствует")
	ErrInvalidAuthHeader = fmt.Errorf("неверный формат заголовка авторизации")
	ErrUnauthorized      = fmt.Errorf("неавторизован")

	// Идентичность оборудования
	ErrIdentityConflict = fmt.Errorf("серийный номер уже используется другим оборудованием")

	// Хранилища
	ErrBackendUnavailable = fmt.Errorf("основное хранилище недоступно")
	ErrCacheMiss          = fmt.Errorf("ключ отсутствует в кеше")
	ErrSaveInProgress     = fmt.Errorf("сохранение уже выполняется")
	ErrSaveFailed         = fmt.Errorf("не удалось сохранить оборудование")

	// Связанные активы
	ErrNoEquipmentSelected = fmt.Errorf("оборудование не выбрано")
	ErrInvalidAssetNo      = fmt.Errorf("недопустимый номер актива")
	ErrAssetAlreadyLinked  = fmt.Errorf("актив уже привязан к оборудованию")
	ErrAssetNotFound       = fmt.Errorf("актив не найден")
	ErrAccessoryNotFound   = fmt.Errorf("строка комплектующих не найдена")
	ErrLinkedRowReadOnly   = fmt.Errorf("привязанная строка доступна только для чтения")

	// Общие
	ErrNotFound   = fmt.Errorf("запись не найдена")
	ErrBadRequest = fmt.Errorf("неверный запрос")
)

// Кастомные типы ошибок
type InvalidInputError struct {
	Message string
}

func (e *InvalidInputError) Error() string { return e.Message }

func NewInvalidInputError(format string, args ...interface{}) error {
	return &InvalidInputError{Message: fmt.Sprintf(format, args...)}
}

// HttpError - ошибка с HTTP-кодом и сообщением для клиента.
type HttpError struct {
	Code    int
	Message string
	Err     error
	Details map[string]interface{}
}

func (e *HttpError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *HttpError) Unwrap() error { return e.Err }

func NewHttpError(code int, message string, err error, details map[string]interface{}) *HttpError {
	return &HttpError{Code: code, Message: message, Err: err, Details: details}
}
