package ui

import (
	"errors"
	"strconv"
	"strings"
)

const (
	CallbackPrefix     = "s:"
	MaxCallbackDataLen = 64
)

type Screen string

const (
	ScreenHome  Screen = "home"
	ScreenGoal  Screen = "goal"
	ScreenHour  Screen = "hour"
	ScreenBooks Screen = "books"
	ScreenClose Screen = "close"
)

type Operation string

const (
	OpNone   Operation = ""
	OpInc    Operation = "+1"
	OpDec    Operation = "-1"
	OpSet    Operation = "set"
	OpToggle Operation = "toggle"
)

type Action struct {
	Screen Screen
	Op     Operation
	Value  int
}

var (
	errInvalidPrefix       = errors.New("invalid callback prefix")
	errInvalidAction       = errors.New("invalid callback action")
	errInvalidOperation    = errors.New("invalid callback operation")
	errInvalidValue        = errors.New("invalid callback value")
	errCallbackDataTooLong = errors.New("callback data too long")
)

func BuildHomeCallback() (string, error) {
	return buildSimpleCallback(ScreenHome)
}

func BuildGoalCallback() (string, error) {
	return buildSimpleCallback(ScreenGoal)
}

func BuildHourCallback() (string, error) {
	return buildSimpleCallback(ScreenHour)
}

func BuildBooksCallback() (string, error) {
	return buildSimpleCallback(ScreenBooks)
}

func BuildCloseCallback() (string, error) {
	return buildSimpleCallback(ScreenClose)
}

func BuildIncCallback(screen Screen) (string, error) {
	return buildAdjustCallback(screen, OpInc)
}

func BuildDecCallback(screen Screen) (string, error) {
	return buildAdjustCallback(screen, OpDec)
}

func BuildSetCallback(screen Screen, value int) (string, error) {
	if !adjustable(screen) {
		return "", errInvalidAction
	}
	if value < 0 {
		return "", errInvalidValue
	}
	data := CallbackPrefix + string(screen) + ":" + string(OpSet) + ":" + strconv.Itoa(value)
	return validateCallbackData(data)
}

// BuildBookToggleCallback refers to a wordbook by its position in the
// listing; ids do not fit the callback size limit comfortably.
func BuildBookToggleCallback(index int) (string, error) {
	if index < 0 {
		return "", errInvalidValue
	}
	data := CallbackPrefix + string(ScreenBooks) + ":" + string(OpToggle) + ":" + strconv.Itoa(index)
	return validateCallbackData(data)
}

func ParseCallbackData(data string) (Action, error) {
	if data == "" {
		return Action{}, errInvalidAction
	}
	if len(data) > MaxCallbackDataLen {
		return Action{}, errCallbackDataTooLong
	}
	if !strings.HasPrefix(data, CallbackPrefix) {
		return Action{}, errInvalidPrefix
	}

	parts := strings.Split(data, ":")
	switch len(parts) {
	case 2:
		screen, err := parseScreen(parts[1])
		if err != nil {
			return Action{}, err
		}
		return Action{Screen: screen, Op: OpNone}, nil
	case 3:
		return parseAdjustAction(parts[1], parts[2])
	case 4:
		screen, err := parseScreen(parts[1])
		if err != nil {
			return Action{}, err
		}
		switch Operation(parts[2]) {
		case OpSet:
			if !adjustable(screen) {
				return Action{}, errInvalidAction
			}
		case OpToggle:
			if screen != ScreenBooks {
				return Action{}, errInvalidAction
			}
		default:
			return Action{}, errInvalidOperation
		}
		value, err := parseUnsigned(parts[3])
		if err != nil {
			return Action{}, err
		}
		return Action{Screen: screen, Op: Operation(parts[2]), Value: value}, nil
	default:
		return Action{}, errInvalidAction
	}
}

func adjustable(screen Screen) bool {
	return screen == ScreenGoal || screen == ScreenHour
}

func buildSimpleCallback(screen Screen) (string, error) {
	return validateCallbackData(CallbackPrefix + string(screen))
}

func buildAdjustCallback(screen Screen, op Operation) (string, error) {
	if !adjustable(screen) {
		return "", errInvalidAction
	}
	if op != OpInc && op != OpDec {
		return "", errInvalidOperation
	}
	return validateCallbackData(CallbackPrefix + string(screen) + ":" + string(op))
}

func validateCallbackData(data string) (string, error) {
	if data == "" {
		return "", errInvalidAction
	}
	if len(data) > MaxCallbackDataLen {
		return "", errCallbackDataTooLong
	}
	return data, nil
}

func parseAdjustAction(screenPart, opPart string) (Action, error) {
	screen, err := parseScreen(screenPart)
	if err != nil {
		return Action{}, err
	}
	if !adjustable(screen) {
		return Action{}, errInvalidAction
	}
	switch Operation(opPart) {
	case OpInc:
		return Action{Screen: screen, Op: OpInc, Value: 1}, nil
	case OpDec:
		return Action{Screen: screen, Op: OpDec, Value: -1}, nil
	default:
		return Action{}, errInvalidOperation
	}
}

func parseScreen(screenPart string) (Screen, error) {
	switch s := Screen(screenPart); s {
	case ScreenHome, ScreenGoal, ScreenHour, ScreenBooks, ScreenClose:
		return s, nil
	default:
		return "", errInvalidAction
	}
}

func parseUnsigned(value string) (int, error) {
	if value == "" {
		return 0, errInvalidValue
	}
	for i := 0; i < len(value); i++ {
		if value[i] < '0' || value[i] > '9' {
			return 0, errInvalidValue
		}
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, errInvalidValue
	}
	return n, nil
}
