package metrics

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

type mapping struct {
	Key     string
	Display string
}

// displayNames maps backend field names to the localized names shown to users.
// Order matters for reverse lookup: several keys share a display name.
var displayNames = []mapping{
	{"taxa_abertura", "Taxa de Abertura"},
	{"taxa_cliques", "Taxa de Cliques"},
	{"taxa_conversao", "Taxa de Conversão"},
	{"taxa_rejeicao", "Taxa de Rejeição"},
	{"taxa_bounce", "Taxa de Bounce"},
	{"alcance", "Alcance"},
	{"engajamento", "Engajamento"},
	{"crescimento_seguidores", "Crescimento Seguidores"},
	{"ctr", "CTR"},
	{"roas", "ROAS"},
	{"crescimento_trafego", "Crescimento do Tráfego"},
	{"ctr_seo", "CTR SEO"},
	{"conversoes", "Conversões"},
	{"receita", "Receita"},
	{"taxa_conversao_cvr", "Taxa de Conversão (CVR)"},
	{"ticket_medio", "Ticket Médio"},
	{"cac", "CAC"},
	{"ctr_google", "CTR GOOGLE"},
	{"cpc_google", "CPC GOOGLE"},
	{"conversoes_google", "Conversões GOOGLE"},
	{"roas_google", "ROAS GOOGLE"},
	{"cpm", "CPM"},
	{"ctr_meta", "CTR"},
	{"conversoes_meta", "Conversões"},
	{"roas_meta", "ROAS"},
	{"sessoes", "Sessões"},
	{"page_views", "Page Views"},
	{"tempo_medio_pagina", "Tempo Médio na Página"},
	{"leads_convertidos", "Leads Convertidos"},
	{"seguidores", "Seguidores"},
	{"investimento", "Investimento"},
	{"cpc", "CPC"},
	{"taxa_roas", "ROAS"},
}

var titleCaser = cases.Title(language.BrazilianPortuguese)

// DisplayName returns the localized name for a backend field. Unknown keys are
// title-cased with separators replaced by spaces.
func DisplayName(key string) string {
	for _, m := range displayNames {
		if m.Key == key {
			return m.Display
		}
	}
	words := strings.FieldsFunc(key, func(r rune) bool { return r == '_' || r == '-' })
	return titleCaser.String(strings.Join(words, " "))
}

// backendKeys returns every backend field whose display name equals display.
func backendKeys(display string) []string {
	var keys []string
	for _, m := range displayNames {
		if m.Display == display {
			keys = append(keys, m.Key)
		}
	}
	return keys
}
