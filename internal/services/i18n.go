package services

// Coach phrases the server splices into spoken lines, per language. The
// client owns all other presentation strings.
type coachStrings struct {
	LetMeSee     string
	GenericError string
	ModeDisabled string
	Unavailable  string
}

var coachI18N = map[string]coachStrings{
	"en": {
		LetMeSee: "When you're through with this step, click 'Let me see' so I can check your work. " +
			"And remember, if you want to buy any of these things, I'm your girl—just click shop! Any questions?",
		GenericError: "Oops! Something went wrong.",
		ModeDisabled: "That mode is temporarily disabled. Please try another one.",
		Unavailable:  "This feature is currently unavailable.",
	},
	"pt": {
		LetMeSee: "Ao terminar este passo, clique em 'Deixe-me ver'. " +
			"Se quiser levar o look, lembre-se que sou sua consultora—é só clicar na loja! Dúvidas?",
		GenericError: "Algo deu errado.",
		ModeDisabled: "Esse modo está temporariamente desativado. Tente outro.",
		Unavailable:  "Este recurso está indisponível no momento.",
	},
	"es": {
		LetMeSee: "Cuando termines este paso, haz clic en 'Déjame ver'. " +
			"Si te encanta, ¡recuerda que soy tu chica! Haz clic en tienda para comprarlo. ¿Dudas?",
		GenericError: "Algo salió mal.",
		ModeDisabled: "Ese modo está desactivado temporalmente. Prueba otro.",
		Unavailable:  "Esta función no está disponible por ahora.",
	},
	"ja": {
		LetMeSee:     "準備ができたら「チェック」を押してください。私がアドバイスします。商品が気になったら「ショップ」を見てくださいね！何か質問はありますか？",
		GenericError: "エラーが発生しました。",
		ModeDisabled: "そのモードは一時的に無効です。別のモードをお試しください。",
		Unavailable:  "この機能は現在ご利用いただけません。",
	},
}

func coachStringsFor(lang string) coachStrings {
	if s, ok := coachI18N[lang]; ok {
		return s
	}
	return coachI18N["en"]
}
