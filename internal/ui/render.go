// Package ui renders the purchase flow's screens as Discord components-v2
// payloads. Every screen is a single container the messenger anchors on one
// message and edits in place.
package ui

import (
	"encoding/json"
	"fmt"

	"github.com/proliferam/teste-mercado-pago/internal/domain"
	"github.com/proliferam/teste-mercado-pago/internal/pricing"
	"github.com/proliferam/teste-mercado-pago/internal/purchase"
)

// Component custom ids, shared with the interaction endpoint.
const (
	IDStartPurchase    = "criar_thread_privada"
	IDContinue         = "btn_continuar"
	IDIdentityModal    = "modal_compra"
	IDFieldUsername    = "robloxUser"
	IDFieldAmount      = "valorDesejado"
	IDConfirmYes       = "confirmar_usuario_sim"
	IDConfirmNo        = "confirmar_usuario_nao"
	IDPreListingGo     = "pre_gp_continuar"
	IDSelectItems      = "selecionar_gamepass"
	IDBackToIdentity   = "voltar_confirmacao_usuario"
	IDConfirmSelection = "confirmar_gamepasses"
	IDForceConfirm     = "confirmar_gamepasses_force"
	IDManualOpen       = "enviar_gamepass_manual"
	IDManualModal      = "modal_gamepass_manual"
	IDFieldManualItem  = "gamepassManual"
	IDBackToSelection  = "voltar_para_selecao_gamepasses"
	IDBackToSummary    = "voltar_para_resumo"
	IDGeneratePayment  = "btn_gerar_pagamento"
	IDCheckStatus      = "btn_verificar_status"
	IDComplete         = "btn_finalizar_compra"
	IDCancel           = "btn_cancelar_compra"
	IDCancelConfirmed  = "btn_cancelar_confirmado"
	IDCancelAbort      = "btn_cancelar_voltar"
)

// Discord component type discriminators.
const (
	typeActionRow    = 1
	typeButton       = 2
	typeStringSelect = 3
	typeTextInput    = 4
	typeSection      = 9
	typeTextDisplay  = 10
	typeThumbnail    = 11
	typeMediaGallery = 12
	typeSeparator    = 14
	typeContainer    = 17
)

const (
	stylePrimary   = 1
	styleSecondary = 2
	styleSuccess   = 3
	styleDanger    = 4
	styleLink      = 5
)

const (
	colorBrand     = 15105570
	colorDanger    = 0xff0000
	colorNeutral   = 0x808080
	colorCheckout  = 0x009ee3
	colorConfirmed = 0x00a650
)

const (
	welcomeBannerURL = "https://media.discordapp.net/attachments/1397917461336035471/1439417508955426846/INICIAR.png?format=webp"
	tutorialVideoURL = "https://youtu.be/B-LQU3J24pI?si=cnDg0_bTYYxirlAg"
	calculatorURL    = "https://discord.com/channels/1393579766698737786/1435746897808850974"
)

type component = map[string]any

// Renderer builds the screen payloads from a session snapshot.
type Renderer struct{}

func New() *Renderer { return &Renderer{} }

func (r *Renderer) Render(s *domain.Session, kind purchase.ScreenKind) domain.Screen {
	var c component
	switch kind {
	case purchase.ScreenWelcome:
		c = welcome()
	case purchase.ScreenIdentityConfirm:
		c = identityConfirm(s)
	case purchase.ScreenPreListing:
		c = preListing(s)
	case purchase.ScreenSelection:
		c = selection(s)
	case purchase.ScreenManualItem:
		c = manualItem(s)
	case purchase.ScreenMismatch:
		c = mismatch(s)
	case purchase.ScreenSummary:
		c = summary(s)
	case purchase.ScreenPayment:
		c = payment(s)
	case purchase.ScreenPaymentLink:
		c = paymentLink(s)
	case purchase.ScreenSuccess:
		c = paymentSuccess()
	case purchase.ScreenCancelConfirm:
		c = cancelConfirm()
	case purchase.ScreenCancelled:
		c = cancelled()
	case purchase.ScreenCompleted:
		c = completed()
	default:
		c = welcome()
	}
	return marshal(c)
}

// IdentityForm is the modal asking for the Roblox username and the amount
// the buyer wants to receive.
func (r *Renderer) IdentityForm() domain.Screen {
	return marshal(component{
		"custom_id": IDIdentityModal,
		"title":     "Informações da compra",
		"components": []component{
			row(textInput(IDFieldUsername, "Seu usuário Roblox", "Ex: proliferam")),
			row(textInput(IDFieldAmount, "Quanto você quer receber? (ex: 1000)", "")),
		},
	})
}

// ManualItemForm is the modal asking for a gamepass link or id.
func (r *Renderer) ManualItemForm() domain.Screen {
	return marshal(component{
		"custom_id": IDManualModal,
		"title":     "Informar gamepass manualmente",
		"components": []component{
			row(textInput(IDFieldManualItem, "Link ou ID da gamepass",
				"Ex: https://www.roblox.com/game-pass/123456/MeuPass ou 123456")),
		},
	})
}

func welcome() component {
	return container(colorBrand,
		separator(),
		gallery(welcomeBannerURL),
		separator(),
		row(
			linkButton("Calculadora de valores", calculatorURL),
			button(styleSecondary, "Continuar compra", IDContinue),
			cancelButton(),
		),
	)
}

func identityConfirm(s *domain.Session) component {
	comps := []component{
		separator(),
		section(thumbnail(s.AvatarURL),
			text("**Confirme se estas informações estão corretas antes de continuar**")),
		section(
			linkButton("Ver perfil no Roblox", fmt.Sprintf("https://www.roblox.com/users/%d/profile", s.Account.ID)),
			text(fmt.Sprintf("**Usuário digitado:** %s\n**Usuário encontrado:** %s (ID: %d)",
				s.TypedIdentifier, s.Account.Name, s.Account.ID))),
		gameLine(s),
		separator(),
		row(
			button(styleSuccess, "Sim, sou eu", IDConfirmYes),
			button(styleDanger, "Não, quero alterar", IDConfirmNo),
			cancelButton(),
		),
	}
	return container(colorBrand, comps...)
}

func preListing(s *domain.Session) component {
	createURL := s.CreateLink
	if createURL == "" {
		createURL = "https://create.roblox.com"
	}
	return container(colorBrand,
		gallery(tutorialVideoURL),
		separator(),
		text(fmt.Sprintf("Pra receber: **%d Robux**", s.DesiredAmount)),
		text(fmt.Sprintf("Você deve criar uma gamepass de: **%d Robux**", s.ListingAmount)),
		row(
			linkButton("Criar gamepass", createURL),
			button(styleSuccess, "Continuar", IDPreListingGo),
		),
	)
}

func selection(s *domain.Session) component {
	header := "**Usuário confirmado:** " + s.Account.Name
	if len(s.CatalogCandidates) > 0 && !s.FallbackManual {
		header += "\nAgora selecione a(s) gamepass(es) que você deseja usar na compra."
	}
	comps := []component{
		separator(),
		section(thumbnail(s.AvatarURL), text(header)),
		gameLine(s),
		separator(),
	}

	backRow := []component{
		button(styleSecondary, "⬅ Voltar", IDBackToIdentity),
		cancelButton(),
	}

	if s.FallbackManual || len(s.CatalogCandidates) == 0 {
		comps = append(comps, text("❌ Não foi possível listar automaticamente suas gamepasses.\nVocê pode informar a gamepass manualmente."))
		backRow = append(backRow, button(stylePrimary, "Enviar gamepass manualmente", IDManualOpen))
	} else {
		comps = append(comps, row(candidateSelect(s.CatalogCandidates)))
		backRow = append(backRow, button(styleSuccess, "✅ Confirmar seleção", IDConfirmSelection))
	}

	comps = append(comps, row(backRow...))
	return container(colorBrand, comps...)
}

func candidateSelect(items []domain.CatalogItem) component {
	maxValues := len(items)
	if maxValues > 5 {
		maxValues = 5
	}
	options := make([]component, 0, len(items))
	for _, item := range items {
		name := item.Name
		if name == "" {
			name = "Sem nome"
		}
		if r := []rune(name); len(r) > 100 {
			name = string(r[:100])
		}
		options = append(options, component{
			"label":       name,
			"description": fmt.Sprintf("Valor: %d | Você receberá: %d", item.Price, pricing.ReceivedFromListing(item.Price)),
			"value":       fmt.Sprintf("%d", item.ID),
		})
	}
	return component{
		"type":        typeStringSelect,
		"custom_id":   IDSelectItems,
		"placeholder": "Selecione uma ou mais gamepasses que serão usadas na compra",
		"min_values":  1,
		"max_values":  maxValues,
		"options":     options,
	}
}

func manualItem(s *domain.Session) component {
	item := s.ManualCandidate
	comps := []component{
		separator(),
		section(thumbnail(s.AvatarURL), text("**Usuário confirmado:** "+s.Account.Name)),
	}
	if s.GameName != "" {
		comps = append(comps, text("**🎮 Jogo detectado:** "+s.GameName))
	}
	comps = append(comps,
		separator(),
		text(fmt.Sprintf("**Gamepass informada:** %s\n**ID:** %d\n**Preço:** %d Robux\n**Estimativa que você receberá:** %d Robux (70%%)",
			itemName(item), item.ID, item.Price, pricing.ReceivedFromListing(item.Price))),
		text(fmt.Sprintf("🔗 [Abrir gamepass no Roblox](https://www.roblox.com/game-pass/%d/-)", item.ID)),
		separator(),
		text("Se estiver tudo certo com essa gamepass, clique em **Confirmar seleção** abaixo.\nCaso queira alterar, basta informar outra gamepass."),
		row(
			button(styleSecondary, "⬅ Voltar para seleção de gamepasses", IDBackToSelection),
			button(styleSuccess, "✅ Confirmar seleção", IDConfirmSelection),
			cancelButton(),
		),
	)
	return container(colorBrand, comps...)
}

func mismatch(s *domain.Session) component {
	item := s.ManualCandidate
	return container(colorBrand,
		separator(),
		section(thumbnail(s.AvatarURL), text("**Atenção — proprietário diferente detectado**")),
		text(fmt.Sprintf("A gamepass informada pertence a **%s** (ID: %d) — **não** corresponde ao usuário confirmado **%s**.\n\n**Gamepass:** %s\n**ID:** %d\n**Preço:** %d Robux\n**Estimativa que você receberá:** %d Robux (70%%)",
			item.OwnerName, item.OwnerID, s.Account.Name,
			itemName(item), item.ID, item.Price, pricing.ReceivedFromListing(item.Price))),
		separator(),
		text("Se você é realmente o dono desta gamepass, verifique o usuário que você confirmou. Se não for, cancele a operação.\nVocê pode voltar para selecionar outra gamepass ou forçar a confirmação (somente se o atendimento permitir)."),
		row(
			button(styleSecondary, "⬅ Voltar para seleção de gamepasses", IDBackToSelection),
			button(styleDanger, "Forçar confirmar (prosseguir mesmo assim)", IDForceConfirm),
			cancelButton(),
		),
	)
}

func summary(s *domain.Session) component {
	totalPrice := 0
	totalReceive := 0
	lines := ""
	for i, item := range s.SelectedItems {
		receive := pricing.ReceivedFromListing(item.Price)
		totalPrice += item.Price
		totalReceive += receive
		lines += fmt.Sprintf("**%d. %s** — Valor: %d | Você receberá: %d\n", i+1, item.Name, item.Price, receive)
	}

	comps := []component{
		text("**Detalhes finais da sua compra**"),
		text(fmt.Sprintf("**Usuário digitado:** %s\n**Usuário confirmado:** %s", s.TypedIdentifier, s.Account.Name)),
		separator(),
		text(lines),
		separator(),
		text(fmt.Sprintf("**Total das gamepasses selecionadas:** %d Robux\n**Total estimado que você receberá:** %d Robux (aprox. 70%%)", totalPrice, totalReceive)),
	}
	if s.GameName != "" {
		comps = append(comps,
			text("**Jogo selecionado:** "+s.GameName),
			text(fmt.Sprintf("**Place ID:** %d", s.PlaceID)))
	}
	comps = append(comps,
		separator(),
		text("✅ **Pronto!** Sua seleção de gamepasses foi confirmada.\nUm atendente utilizará essas informações para concluir a sua compra."),
		row(
			button(styleSecondary, "⬅ Voltar para seleção de gamepasses", IDBackToSelection),
			cancelButton(),
		),
	)
	return container(colorBrand, comps...)
}

func payment(s *domain.Session) component {
	totalReceive := 0
	lines := "**Gamepasses selecionadas:**\n"
	for _, item := range s.SelectedItems {
		totalReceive += pricing.ReceivedFromListing(item.Price)
		lines += fmt.Sprintf("• %s - %d Robux\n", item.Name, item.Price)
	}
	charge := pricing.FormatBRL(pricing.ChargeCents(totalReceive))

	return container(colorCheckout,
		text("**🎉 Finalização da Compra**"),
		text(fmt.Sprintf("**Usuário Roblox:** %s\n**Valor a receber:** %d Robux\n**Valor a pagar:** %s",
			s.Account.Name, totalReceive, charge)),
		separator(),
		text(lines),
		separator(),
		text("💳 **Escolha a forma de pagamento:**\nClique no botão abaixo para gerar seu link de pagamento seguro via Mercado Pago."),
		row(
			button(styleSuccess, "💳 Pagar "+charge, IDGeneratePayment),
			button(styleSecondary, "⬅ Voltar ao resumo", IDBackToSummary),
			cancelButton(),
		),
	)
}

func paymentLink(s *domain.Session) component {
	return container(colorConfirmed,
		text("**🔗 Link de Pagamento Gerado**"),
		text("✅ Seu link de pagamento foi gerado com sucesso!\n\n**Próximos passos:**\n1. Clique no botão abaixo para acessar a página de pagamento\n2. Complete o pagamento usando Mercado Pago\n3. Aguarde a confirmação automática\n4. Seu Robux será enviado em até 5 minutos após a confirmação\n\n⚠️ **Atenção:** Não feche esta thread até receber a confirmação!"),
		row(
			linkButton("💰 Realizar Pagamento", s.PaymentURL),
			button(styleSecondary, "🔄 Verificar Status", IDCheckStatus),
		),
	)
}

func paymentSuccess() component {
	return container(colorConfirmed,
		text("**✅ Pagamento Confirmado!**"),
		text("🎉 **Seu pagamento foi aprovado!**\n\n**Próximos passos:**\n• Aguarde o processamento do seu Robux\n• O valor será creditado em sua conta em até 5 minutos\n• Um atendente entrará em contato em breve\n\n📞 **Suporte:** Em caso de dúvidas, entre em contato com nossa equipe."),
		row(button(styleSuccess, "✅ Finalizar Compra", IDComplete)),
	)
}

func cancelConfirm() component {
	return container(colorDanger,
		separator(),
		text("⚠️ **Tem certeza que deseja cancelar esta compra?**\nSe você confirmar, esta thread será encerrada e você terá que iniciar uma nova compra se quiser continuar depois."),
		separator(),
		row(
			button(styleDanger, "Sim, quero cancelar", IDCancelConfirmed),
			button(styleSecondary, "Não, voltar", IDCancelAbort),
		),
	)
}

func cancelled() component {
	return container(colorNeutral,
		separator(),
		text("❌ **Compra cancelada.**\nEsta thread será encerrada em alguns segundos.\n\nSe quiser fazer uma nova compra futuramente, basta iniciar novamente pelo canal principal."),
		separator(),
	)
}

func completed() component {
	return container(colorConfirmed,
		separator(),
		text("🎊 **Compra finalizada!**\nObrigado pela preferência. Esta thread será encerrada em alguns segundos."),
		separator(),
	)
}

func gameLine(s *domain.Session) component {
	if s.GameName != "" {
		return text("**🎮 Jogo detectado:** " + s.GameName)
	}
	return text("**⚠️ Jogo:** Nenhum jogo público foi identificado neste perfil.")
}

func itemName(item *domain.ManualItem) string {
	if item.Name == "" {
		return "Sem nome"
	}
	return item.Name
}

func container(accent int, comps ...component) component {
	return component{
		"type":         typeContainer,
		"accent_color": accent,
		"components":   comps,
	}
}

func text(content string) component {
	return component{"type": typeTextDisplay, "content": content}
}

func separator() component {
	return component{"type": typeSeparator, "divider": true, "spacing": 1}
}

func row(comps ...component) component {
	return component{"type": typeActionRow, "components": comps}
}

func button(style int, label, customID string) component {
	return component{"type": typeButton, "style": style, "label": label, "custom_id": customID}
}

func linkButton(label, url string) component {
	return component{"type": typeButton, "style": styleLink, "label": label, "url": url}
}

func cancelButton() component {
	return button(styleDanger, "Cancelar compra", IDCancel)
}

func section(accessory component, comps ...component) component {
	return component{"type": typeSection, "accessory": accessory, "components": comps}
}

func thumbnail(url string) component {
	return component{"type": typeThumbnail, "media": component{"url": url}}
}

func gallery(url string) component {
	return component{
		"type":  typeMediaGallery,
		"items": []component{{"media": component{"url": url}}},
	}
}

func textInput(customID, label, placeholder string) component {
	in := component{
		"type":      typeTextInput,
		"custom_id": customID,
		"label":     label,
		"style":     1,
		"required":  true,
	}
	if placeholder != "" {
		in["placeholder"] = placeholder
	}
	return in
}

func marshal(c component) domain.Screen {
	raw, err := json.Marshal(c)
	if err != nil {
		// Screens are built from static shapes; this cannot fail at runtime.
		panic(err)
	}
	return domain.Screen(raw)
}
