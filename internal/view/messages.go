package view

import "golang.org/x/text/language"

// Message keys. Each key is also the lookup format for the printer.
const (
	keyWhen          = "event.when"
	keyNext          = "event.next"
	keyWhere         = "event.where"
	keySlots         = "event.slots"
	keySlotsCapacity = "event.slots_capacity"
	keyReserveCount  = "event.reserve_count"
	keyOpenUntil     = "event.open_until"
	keyOpenAlways    = "event.open"
	keyOpensAt       = "event.opens_at"
	keyClosed        = "event.closed"
	keyRosterEmpty   = "roster.empty"
	keyRosterHeader  = "roster.header"
	keyReserveHeader = "roster.reserve"

	keyBtnJoin   = "button.join"
	keyBtnLeave  = "button.leave"
	keyBtnList   = "button.list"
	keyBtnTeams  = "button.teams"
	keyBtnReset  = "button.reset"
	keyBtnDelete = "button.delete"

	keyTeamsHeader = "teams.header"
	keyTeam        = "teams.team"

	MsgJoined          = "reply.joined"
	MsgJoinedMore      = "reply.joined_more"
	MsgJoinedReserve   = "reply.joined_reserve"
	MsgLeft            = "reply.left"
	MsgNotRegistered   = "reply.not_registered"
	MsgWindowClosed    = "reply.window_closed"
	MsgNoEvent         = "reply.no_event"
	MsgNotAdmin        = "reply.not_admin"
	MsgTooFew          = "reply.too_few"
	MsgAskTeams        = "reply.ask_teams"
	MsgTeamsBelowMin   = "reply.teams_below_min"
	MsgTeamsAboveLimit = "reply.teams_above_limit"
	MsgReset           = "reply.reset"
	MsgDeleted         = "reply.deleted"
	MsgInvalid         = "reply.invalid"
	MsgFailure         = "reply.failure"
	MsgHelp            = "reply.help"
)

var weekdayKeys = [7]string{
	"weekday.sunday", "weekday.monday", "weekday.tuesday", "weekday.wednesday",
	"weekday.thursday", "weekday.friday", "weekday.saturday",
}

var translations = map[language.Tag]map[string]string{
	language.Russian: {
		keyWhen:          "🗓 %s в %s (%s)",
		keyNext:          "Ближайшая игра: %s",
		keyWhere:         "📍 %s",
		keySlots:         "Участников: %d",
		keySlotsCapacity: "Участников: %d из %d",
		keyReserveCount:  "В резерве: %d",
		keyOpenUntil:     "✅ Запись открыта до %s",
		keyOpenAlways:    "✅ Запись открыта",
		keyOpensAt:       "⏳ Запись откроется %s",
		keyClosed:        "⛔ Запись закрыта",
		keyRosterEmpty:   "Пока никто не записался",
		keyRosterHeader:  "Участники:",
		keyReserveHeader: "Резерв:",

		keyBtnJoin:   "➕ Иду",
		keyBtnLeave:  "➖ Не иду",
		keyBtnList:   "📋 Список",
		keyBtnTeams:  "⚽ Команды",
		keyBtnReset:  "🔄 Сбросить",
		keyBtnDelete: "🗑 Удалить",

		keyTeamsHeader: "Команды на «%s» (%d чел.):",
		keyTeam:        "Команда %d",

		MsgJoined:          "%s, вы записаны",
		MsgJoinedMore:      "%s, записано %d",
		MsgJoinedReserve:   "%s, вы в резерве",
		MsgLeft:            "%s, запись отменена",
		MsgNotRegistered:   "%s, вы не были записаны",
		MsgWindowClosed:    "Запись сейчас закрыта",
		MsgNoEvent:         "В этом чате нет события",
		MsgNotAdmin:        "Это могут делать только администраторы чата",
		MsgTooFew:          "Для деления на команды нужно минимум 2 участника",
		MsgAskTeams:        "Сколько команд? Отправьте число от 2 до %d",
		MsgTeamsBelowMin:   "Минимум %d команды",
		MsgTeamsAboveLimit: "Максимум %d команд: столько записано участников",
		MsgReset:           "Список участников очищен",
		MsgDeleted:         "Событие удалено",
		MsgInvalid:         "Некорректные данные",
		MsgFailure:         "Что-то пошло не так, попробуйте позже",
		MsgHelp:            "Напишите + чтобы записаться (ещё раз + за гостя), - чтобы отменить запись.\n/list показывает список, /teams делит на команды, /reset очищает список.",

		"weekday.sunday":    "воскресенье",
		"weekday.monday":    "понедельник",
		"weekday.tuesday":   "вторник",
		"weekday.wednesday": "среда",
		"weekday.thursday":  "четверг",
		"weekday.friday":    "пятница",
		"weekday.saturday":  "суббота",
	},
	language.English: {
		keyWhen:          "🗓 %s at %s (%s)",
		keyNext:          "Next game: %s",
		keyWhere:         "📍 %s",
		keySlots:         "Players: %d",
		keySlotsCapacity: "Players: %d of %d",
		keyReserveCount:  "Reserve: %d",
		keyOpenUntil:     "✅ Registration is open until %s",
		keyOpenAlways:    "✅ Registration is open",
		keyOpensAt:       "⏳ Registration opens %s",
		keyClosed:        "⛔ Registration is closed",
		keyRosterEmpty:   "Nobody has signed up yet",
		keyRosterHeader:  "Participants:",
		keyReserveHeader: "Reserve:",

		keyBtnJoin:   "➕ I'm in",
		keyBtnLeave:  "➖ I'm out",
		keyBtnList:   "📋 List",
		keyBtnTeams:  "⚽ Teams",
		keyBtnReset:  "🔄 Reset",
		keyBtnDelete: "🗑 Delete",

		keyTeamsHeader: "Teams for \"%s\" (%d players):",
		keyTeam:        "Team %d",

		MsgJoined:          "%s, you are in",
		MsgJoinedMore:      "%s, you are in with %d",
		MsgJoinedReserve:   "%s, you are on the reserve list",
		MsgLeft:            "%s, you are out",
		MsgNotRegistered:   "%s, you were not registered",
		MsgWindowClosed:    "Registration is closed right now",
		MsgNoEvent:         "There is no event in this chat",
		MsgNotAdmin:        "Only chat administrators can do this",
		MsgTooFew:          "At least 2 participants are needed to split teams",
		MsgAskTeams:        "How many teams? Send a number from 2 to %d",
		MsgTeamsBelowMin:   "At least %d teams",
		MsgTeamsAboveLimit: "At most %d teams: that is the number of players",
		MsgReset:           "The list has been cleared",
		MsgDeleted:         "The event has been deleted",
		MsgInvalid:         "Invalid input",
		MsgFailure:         "Something went wrong, please try again later",
		MsgHelp:            "Send + to sign up (again for each guest) and - to drop out.\n/list shows the roster, /teams splits it into teams, /reset clears it.",

		"weekday.sunday":    "Sunday",
		"weekday.monday":    "Monday",
		"weekday.tuesday":   "Tuesday",
		"weekday.wednesday": "Wednesday",
		"weekday.thursday":  "Thursday",
		"weekday.friday":    "Friday",
		"weekday.saturday":  "Saturday",
	},
}
