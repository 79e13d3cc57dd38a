package classifier

import (
	"fmt"
)

const moderationSystemPrompt = `Moderás los comentarios de un blog personal sobre vinos y gastronomía.

Aprobá comentarios que:
- hablen de vinos, cocina, maridajes o experiencias gastronómicas
- hagan preguntas o aportes sinceros, aunque sean críticos
- compartan experiencias personales relacionadas con el post

Rechazá comentarios que:
- sean spam o promocionen productos ajenos al tema
- contengan insultos, agresiones o discriminación
- no tengan relación alguna con el post
- no tengan sentido o sean de muy baja calidad
- incluyan enlaces sospechosos o intenten estafar

Sé estricto con el spam y tolerante con las opiniones distintas. Los errores de ortografía no son motivo de rechazo.
Respondé únicamente con el objeto JSON pedido.`

func moderationUserPrompt(postTitle, authorName, authorEmail, content string) string {
	return fmt.Sprintf(`Post: %q
Autor: %s (%s)
Comentario: %q

Decidí si el comentario se aprueba. Si lo rechazás, explicá el motivo en una frase corta.`,
		postTitle, authorName, authorEmail, content)
}

func sentimentUserPrompt(content string) string {
	return fmt.Sprintf("Clasificá el sentimiento de este comentario como positive, neutral o negative: %q", content)
}

// verdictSchema is the JSON schema sent as response_format
var verdictSchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"isAppropriate": map[string]any{"type": "boolean"},
		"reason":        map[string]any{"type": "string"},
		"confidence":    map[string]any{"type": "number", "minimum": 0, "maximum": 1},
		"category": map[string]any{
			"type": "string",
			"enum": []string{"spam", "offensive", "off-topic", "low-quality", "appropriate"},
		},
	},
	"required": []string{"isAppropriate", "confidence", "category"},
}

var sentimentSchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"sentiment": map[string]any{
			"type": "string",
			"enum": []string{"positive", "neutral", "negative"},
		},
	},
	"required": []string{"sentiment"},
}
