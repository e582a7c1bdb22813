package bot

// =============================================================================
// Buttons
// =============================================================================

const (
	BtnCreateAd = "📝 Подать объявление"
	BtnViewAds  = "👀 Смотреть объявления"
	BtnBuy      = "🛒 Куплю"
	BtnSell     = "💰 Продам"
	BtnCancel   = "❌ Отмена"
	BtnFinish   = "✅ Завершить без фото"
)

var (
	mainMenuKeyboard = Keyboard{{BtnCreateAd, BtnViewAds}}
	typeKeyboard     = Keyboard{{BtnBuy, BtnSell}, {BtnCancel}}
	cancelKeyboard   = Keyboard{{BtnCancel}}
	photosKeyboard   = Keyboard{{BtnFinish}, {BtnCancel}}
)

// =============================================================================
// General messages
// =============================================================================

const (
	MsgWelcome = `
		👋 Добро пожаловать в бот объявлений!
		Выберите действие:`
	MsgChooseAction   = "Выберите действие:"
	MsgUnexpectedErr  = "😔 Произошла ошибка при обработке запроса.\nПожалуйста, попробуйте позже или начните сначала."
	MsgUnknownCommand = "Неизвестная команда. Воспользуйтесь кнопками меню."
	MsgCancelled      = "❌ Операция отменена."
	MsgDraftExpired   = "⌛ Объявление не было завершено и удалено из-за неактивности."
)

// =============================================================================
// Ad creation messages
// =============================================================================

const (
	MsgChooseType   = "Выберите тип объявления:"
	MsgUseButtons   = "Пожалуйста, используйте кнопки для выбора!"
	MsgEnterName    = "Введите название товара:"
	MsgEnterPrice   = "Введите цену (только цифры):"
	MsgInvalidPrice = "Пожалуйста, введите корректную цену (только цифры)"
	MsgEnterContact = `
		Введите контактные данные для связи:
		(например, номер телефона или username в Telegram)`
	MsgEmptyText      = "Сообщение не может быть пустым. Попробуйте еще раз."
	MsgTextExpected   = "Пожалуйста, отправьте текстовое сообщение."
	MsgListingCreated = "✅ Объявление успешно создано!"
)

// =============================================================================
// Photo messages
// =============================================================================

const (
	MsgSendPhotos = `
		Отправьте фотографии товара (до 5 штук)
		После отправки всех фото нажмите 'Завершить без фото'`
	MsgPhotoAdded = `
		Фото #%d загружено.
		Можете отправить еще %s или нажать 'Завершить без фото'`
	MsgLastPhotoAdded    = "Фото #%d загружено. Это максимум, нажмите 'Завершить без фото'"
	MsgPhotoLimitReached = "Достигнут лимит в 5 фотографий. Нажмите 'Завершить без фото'"
	MsgPhotoSaveFailed   = "Ошибка при сохранении фото. Попробуйте еще раз."
	MsgSendPhotoOrFinish = "Отправьте фото или нажмите 'Завершить без фото'"
)

// =============================================================================
// Browse messages
// =============================================================================

const (
	MsgNoListings = "📭 Пока нет объявлений."

	listingSummaryFmt = "📌 Объявление #%d\nТип: %s\nТовар: %s\n%s: %s\nКонтакт: %s"
	kindLabelBuy      = "Куплю"
	kindLabelSell     = "Продам"
	priceLabelBuy     = "Бюджет"
	priceLabelSell    = "Цена"
)
