package intent

import (
	"regexp"
	"slices"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Rule associa padrões (inglês e hindi/hinglish) a uma ação. Os grupos
// nomeados viram parâmetros: "<param>" carrega o valor e "<param>_ref" marca
// uma referência simbólica ("that order", "वो ऑर्डर") resolvida pelo binder.
type Rule struct {
	Action   string
	Patterns []*regexp.Regexp
	// Extract ajusta os parâmetros extraídos; opcional
	Extract func(params map[string]any)
}

// substantivos por entidade
const (
	orderNouns   = `orders?|ऑर्डर|आर्डर`
	productNouns = `products?|items?|प्रोडक्ट|सामान`
	shopNouns    = `shops?|stores?|dukaan|dukan|दुकान|शॉप`
	userNouns    = `users?|यूज़र|यूजर`

	refWords = `that|this|the|same|last|wo|woh|vo|yeh|us|वो|उस|यह|इस|पिछले|पिछला`
	pronouns = `it|this|isko|usko|ise|use|इसे|इसको|उसे|उसको`

	karo    = `(?:\s+(?:karo|करो|kar\s+do|कर\s+दो|kijiye|कीजिए))?`
	amount  = `(?:rs\.?\s*|₹\s*)?(?P<price>\d+(?:\.\d+)?)`
	statusW = `pending|confirmed|shipped|delivered|cancelled|canceled|refunded|पेंडिंग|कन्फर्म|शिप्ड|डिलीवर्ड|रद्द`
	profitW = `profits?|munafa|मुनाफा|मुनाफ़ा|प्रॉफिट`
	decimal = `\d+(?:\.\d+)?`
)

// target casa "order 42", "order #42", "order no 42" ou "that order"
func target(param, nouns string) string {
	return `(?:(?:` + nouns + `)\s*(?:no\.?\s*|number\s*|id\s*|नंबर\s*)?#?(?P<` + param + `>\d+)` +
		`|(?P<` + param + `_ref>(?:` + refWords + `)\s+(?:` + nouns + `)))`
}

// en monta "<verbo> [alvo|pronome]"; o alvo é opcional
func en(verbs, param, nouns string) string {
	return `(?:^|\s)(?:` + verbs + `)(?:\s+(?:` + target(param, nouns) + `|(?:` + pronouns + `)))?(?:\s|$)`
}

// enTarget é como en mas exige o alvo
func enTarget(verbs, param, nouns string) string {
	return `(?:^|\s)(?:` + verbs + `)\s+` + target(param, nouns) + `(?:\s|$)`
}

// hi monta "<alvo> [को] <verbo> [करो]", ordem usual em hindi. Sem alvo o
// verbo precisa ocupar a oração inteira ("रिफंड करो").
func hi(param, nouns, verbs string) string {
	return `(?:(?:^|\s)` + target(param, nouns) + `\s+|(?:^|\s)(?:` + nouns + `)\s+|(?:^|\s)(?:` + pronouns + `)\s+)` +
		`(?:(?:को|ko|का|ka|की|ki)\s+)?(?:` + verbs + `)` + karo + `(?:\s|$)` +
		`|^(?:` + verbs + `)` + karo + `$`
}

// hiTarget é como hi mas exige o alvo
func hiTarget(param, nouns, verbs string) string {
	return `(?:^|\s)` + target(param, nouns) + `\s+(?:(?:को|ko|का|ka|की|ki)\s+)?(?:` + verbs + `)` + karo + `(?:\s|$)`
}

func compile(patterns ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(patterns))
	for i, p := range patterns {
		// o texto de entrada é NFC; o padrão também precisa ser
		out[i] = regexp.MustCompile(`(?i)` + norm.NFC.String(p))
	}
	return out
}

var enumAliases = map[string]string{
	"canceled":   "cancelled",
	"पेंडिंग":    "pending",
	"कन्फर्म":    "confirmed",
	"शिप्ड":      "shipped",
	"डिलीवर्ड":   "delivered",
	"रद्द":       "cancelled",
	"admin":      "shop_admin",
	"admins":     "shop_admin",
	"customers":  "customer",
	"activate":   "active",
	"enable":     "active",
	"चालू":       "active",
	"chalu":      "active",
	"deactivate": "inactive",
	"disable":    "inactive",
	"बंद":        "inactive",
	"band":       "inactive",
}

// canonicalEnum aplica o apelido só quando o alvo é um valor aceito pelo
// parâmetro; "admin" é shop_admin para papéis e admin para notas
func canonicalEnum(v string, allowed []string) string {
	v = strings.ToLower(strings.TrimSpace(v))
	if a, ok := enumAliases[norm.NFC.String(v)]; ok && (len(allowed) == 0 || slices.Contains(allowed, a)) {
		return a
	}
	return v
}

func trimQuotes(key string) func(map[string]any) {
	return func(params map[string]any) {
		if s, ok := params[key].(string); ok {
			params[key] = strings.Trim(strings.TrimSpace(s), `"'“”`)
		}
	}
}

// DefaultRules é a lista ordenada do casador determinístico. A primeira
// regra que casa vence; regras mais específicas vêm antes.
func DefaultRules() []Rule {
	return []Rule{
		// ---- plataforma e dashboards
		{Action: "get_pending_shops", Patterns: compile(
			`(?:^|\s)pending\s+(?:shops|stores|verifications?|approvals?)$`,
			`(?:^|\s)(?:पेंडिंग|pending)\s+(?:दुकानें|dukaane|dukane)(?:\s|$)`,
			`(?:^|\s)approval\s+ke\s+liye`,
			`(?:^|\s)(?:पेंडिंग|pending)\s+(?:shops|dukaan|दुकानें)\s+(?:dikhao|दिखाओ)$`,
		)},
		{Action: "get_platform_stats", Patterns: compile(
			`(?:^|\s)platform\s+(?:stats|statistics|summary)`,
			`(?:^|\s)प्लेटफॉर्म\s+(?:के\s+)?(?:आंकड़े|स्टैट्स)`,
		)},
		{Action: "get_shop_dashboard", Patterns: compile(
			`(?:^|\s)(?:dashboard|डैशबोर्ड)(?:\s|$)`,
			`(?:^|\s)my\s+stats(?:\s|$)`,
		)},

		// ---- pedidos do cliente
		{Action: "list_my_orders", Patterns: compile(
			`(?:^|\s)my\s+(?:(?P<status>`+statusW+`)\s+)?orders?(?:\s|$)`,
			`(?:^|\s)(?:mere|मेरे)\s+(?:(?P<status>`+statusW+`)\s+)?(?:orders?|ऑर्डर्स|ऑर्डर)`,
		)},

		// ---- estoque, preço e venda
		{Action: "restock_product", Patterns: compile(
			`(?:^|\s)restock(?:\s+(?:`+target("product_id", productNouns)+`|(?:`+pronouns+`)))?(?:\s+(?:by|with)\s+(?P<quantity>\d+))?(?:\s|$)`,
			`(?:^|\s)add\s+(?P<quantity>\d+)\s+(?:units?\s+)?(?:of\s+)?stock\s+(?:to|for)\s+`+target("product_id", productNouns),
			`(?:^|\s)`+target("product_id", productNouns)+`\s+(?:ka|का|में|mein)\s+(?:stock|स्टॉक)\s+(?P<quantity>\d+)\s+(?:badhao|बढ़ाओ|jodo|जोड़ो)`,
			`(?:^|\s)`+target("product_id", productNouns)+`\s+(?:में|mein)\s+(?P<quantity>\d+)\s+(?:stock|स्टॉक)\s+(?:jodo|जोड़ो|badhao|बढ़ाओ)`,
		)},
		{Action: "set_product_price", Patterns: compile(
			`(?:^|\s)(?:set|change|update)\s+(?:the\s+)?price\s+(?:of\s+)?`+target("product_id", productNouns)+`\s+to\s+`+amount,
			`(?:^|\s)(?:set|change|update)\s+`+target("product_id", productNouns)+`\s+price\s+to\s+`+amount,
			`(?:^|\s)`+target("product_id", productNouns)+`\s+(?:ka|का|की)\s+(?:price|दाम|कीमत)\s+`+amount+karo+`(?:\s|$)`,
		)},
		{Action: "update_product", Extract: trimQuotes("name"), Patterns: compile(
			`(?:^|\s)(?:update|edit|modify)\s+`+target("product_id", productNouns)+
				`(?:\s+name\s+"(?P<name>[^"]+)")?`+
				`(?:\s+(?:price|mrp)\s+`+amount+`)?`+
				`(?:\s+cost(?:\s+price)?\s+(?P<cost_price>`+decimal+`))?`+
				`(?:\s+min(?:imum)?\s+price\s+(?P<min_price>`+decimal+`))?`+
				`(?:\s+min(?:imum)?\s+stock(?:\s+level)?\s+(?P<min_stock_level>\d+))?`+
				`(?:\s+description\s+(?P<description>.+))?$`,
			`(?:^|\s)rename\s+`+target("product_id", productNouns)+`\s+(?:to|as)\s+(?P<name>.+)$`,
			`(?:^|\s)`+target("product_id", productNouns)+`\s+(?:ka|का)\s+(?:naam|नाम)\s+(?P<name>.+?)\s+(?:karo|करो|rakho|रखो)$`,
		)},
		{Action: "toggle_product_status", Patterns: compile(
			`(?:^|\s)(?P<status>activate|enable|deactivate|disable)\s+`+target("product_id", productNouns)+`(?:\s|$)`,
			`(?:^|\s)toggle\s+(?:(?:the\s+)?status\s+(?:of\s+)?)?`+target("product_id", productNouns)+`(?:\s|$)`,
			`(?:^|\s)`+target("product_id", productNouns)+`\s+(?:(?:को|ko)\s+)?(?P<status>चालू|chalu|बंद|band|activate|deactivate)`+karo+`(?:\s|$)`,
		)},
		{Action: "sell_at_price", Patterns: compile(
			`(?:^|\s)sell\s+(?:(?P<quantity>\d+)\s+(?:of\s+|x\s+)?)?`+target("product_id", productNouns)+`\s+(?:at|for)\s+`+amount+`(?:\s+to\s+(?P<customer_name>.+?))?(?P<force>\s+(?:anyway|force|at\s+loss))?$`,
			`(?:^|\s)`+target("product_id", productNouns)+`\s+`+amount+`\s+(?:mein|में|me)\s+(?:becho|बेचो|bech\s+do|बेच\s+दो)(?P<force>\s+(?:loss\s+par\s+bhi|घाटे\s+में\s+भी))?`,
		)},
		{Action: "place_order", Patterns: compile(
			`(?:^|\s)(?:buy|purchase|order)\s+(?:(?P<quantity>\d+)\s+(?:of\s+|x\s+)?)?`+target("product_id", productNouns)+`(?:\s|$)`,
			`(?:^|\s)`+target("product_id", productNouns)+`\s+(?:(?:के|ke)\s+)?(?:(?P<quantity>\d+)\s+)?(?:kharido|khareedo|खरीदो|mangao|मंगाओ)(?:\s|$)`,
		)},
		{Action: "create_product", Extract: trimQuotes("name"), Patterns: compile(
			`(?:^|\s)(?:add|create)\s+(?:a\s+)?(?:new\s+)?product\s+"(?P<name>[^"]+)"(?:\s+(?:price|at|for)\s+`+amount+`)?(?:\s+(?:quantity|qty|stock)\s+(?P<quantity>\d+))?(?:\s+cost\s+(?P<cost_price>\d+(?:\.\d+)?))?`,
			`(?:^|\s)(?:add|create)\s+(?:a\s+)?(?:new\s+)?product\s+(?P<name>[^\s"]+(?:\s+[^\s"]+)*?)\s+(?:price|at|for)\s+`+amount+`(?:\s+(?:quantity|qty|stock)\s+(?P<quantity>\d+))?(?:\s+cost\s+(?P<cost_price>\d+(?:\.\d+)?))?`,
			`(?:^|\s)(?:नया\s+|naya\s+)?(?:प्रोडक्ट|product)\s+(?:जोड़ो|jodo|बनाओ|banao)\s+(?P<name>.+?)\s+(?:दाम|price|कीमत)\s+`+amount+`(?:\s+(?:मात्रा|quantity|qty)\s+(?P<quantity>\d+))?`,
		)},
		{Action: "delete_product", Patterns: compile(
			enTarget(`delete|remove`, "product_id", productNouns),
			hiTarget("product_id", productNouns, `hatao|हटाओ|हटा\s+दो|delete|डिलीट`),
			// só pronome: o id vem da oração anterior ou da memória
			`(?:^|\s)(?:delete|remove)\s+(?:`+pronouns+`)$`,
			`(?:^|\s)(?:`+pronouns+`)\s+(?:(?:को|ko)\s+)?(?:hatao|हटाओ|हटा\s+दो|delete|डिलीट)`+karo+`$`,
		)},
		{Action: "get_low_stock", Patterns: compile(
			`(?:^|\s)low\s+stock(?:\s+(?:below|under|than)\s+(?P<threshold>\d+))?`,
			`(?:^|\s)(?:कम\s+स्टॉक|stock\s+kam)`,
		)},

		// ---- nota e lucro
		{Action: "generate_bill", Patterns: compile(
			`(?:^|\s)(?:(?:generate|make|show|print|get)\s+)?(?:(?:an?|the)\s+)?(?:(?P<bill_type>customer|admin)\s+)?(?:bill|invoice|receipt)\s+(?:(?:for|of)\s+)?`+target("order_id", orderNouns)+`(?:\s|$)`,
			`(?:^|\s)`+target("order_id", orderNouns)+`\s+(?:ka|का|की)\s+(?:(?P<bill_type>admin|customer)\s+)?(?:bill|बिल|invoice|रसीद)\s+(?:banao|बनाओ|dikhao|दिखाओ|nikalo|निकालो)(?:\s|$)`,
		)},
		{Action: "get_profit_summary", Patterns: compile(
			`(?:^|\s)(?:`+profitW+`)\s+(?:summary|overview|सारांश)(?:\s|$)`,
			`(?:^|\s)(?:मुनाफे|munafe)\s+(?:का|ka)\s+(?:सारांश|summary)(?:\s|$)`,
			`(?:^|\s)total\s+(?:`+profitW+`)$`,
		)},
		{Action: "get_product_profit", Patterns: compile(
			`(?:^|\s)(?:products?\s+(?:wise\s+)?(?:`+profitW+`)|(?:`+profitW+`)\s+(?:by|per)\s+products?)(?:\s|$)`,
			`(?:^|\s)(?:product|प्रोडक्ट)\s+(?:wise|वाइज)\s+(?:`+profitW+`)(?:\s|$)`,
		)},
		{Action: "get_daily_profit", Patterns: compile(
			`(?:^|\s)(?:daily\s+)?(?:`+profitW+`)(?:\s+report)?\s+(?:(?:for|on)\s+)?(?P<date>today|yesterday|\d{4}-\d{2}-\d{2})(?:\s|$)`,
			`(?:^|\s)(?P<date>today|yesterday|aaj|kal|आज|कल)(?:'s|\s+(?:ka|का|की))?\s+(?:`+profitW+`)(?:\s|$)`,
			`(?:^|\s)daily\s+(?:`+profitW+`)(?:\s+report)?$`,
		)},

		// ---- pedidos da loja
		{Action: "confirm_order", Patterns: compile(
			en(`confirm|accept`, "order_id", orderNouns),
			hi("order_id", orderNouns, `confirm|कन्फर्म|accept|स्वीकार`),
		)},
		{Action: "ship_order", Patterns: compile(
			`(?:^|\s)(?:ship|dispatch)(?:\s+(?:`+target("order_id", orderNouns)+`|(?:`+pronouns+`)))?(?:\s+(?:with\s+)?tracking\s+(?:no\.?\s+|number\s+)?(?P<tracking_number>\S+))?(?:\s|$)`,
			hi("order_id", orderNouns, `ship|शिप|bhejo|भेजो|dispatch`),
		)},
		{Action: "deliver_order", Patterns: compile(
			en(`deliver`, "order_id", orderNouns),
			`(?:^|\s)mark\s+`+target("order_id", orderNouns)+`\s+(?:as\s+)?delivered`,
			hi("order_id", orderNouns, `deliver|डिलीवर|delivered|डिलीवर\s+हो\s+गया`),
		)},
		{Action: "cancel_order", Patterns: compile(
			en(`cancel`, "order_id", orderNouns),
			hi("order_id", orderNouns, `cancel|रद्द|कैंसल|radd`),
		)},
		{Action: "refund_order", Patterns: compile(
			`(?:^|\s)refund(?:\s+(?:`+target("order_id", orderNouns)+`|(?:`+pronouns+`)))?(?:\s+(?:because|reason|for)\s+(?P<reason>.+))?(?:\s|$)`,
			hi("order_id", orderNouns, `refund|रिफंड|paisa\s+wapas|पैसा\s+वापस`),
		)},
		{Action: "get_order", Patterns: compile(
			enTarget(`show|get|view|track|check`, "order_id", orderNouns),
			`(?:^|\s)order\s+(?:status|details)\s+#?(?P<order_id>\d+)`,
			hiTarget("order_id", orderNouns, `dikhao|दिखाओ|की\s+जानकारी|कहाँ\s+है|kahan\s+hai`),
		)},
		{Action: "list_orders", Patterns: compile(
			`(?:^|\s)(?:list|show|view)\s+(?:all\s+)?(?:(?P<status>`+statusW+`)\s+)?orders(?:\s|$)`,
			`(?:^|\s)(?:सभी\s+)?(?:(?P<status>`+statusW+`)\s+)?(?:orders|ऑर्डर्स|ऑर्डर)\s+(?:dikhao|दिखाओ)`,
		)},

		// ---- produtos
		{Action: "get_product", Patterns: compile(
			enTarget(`show|get|view|display`, "product_id", productNouns),
			`(?:^|\s)product\s+details\s+#?(?P<product_id>\d+)`,
			hiTarget("product_id", productNouns, `dikhao|दिखाओ|की\s+जानकारी`),
		)},
		{Action: "list_products", Patterns: compile(
			`(?:^|\s)(?:list|show|view)\s+(?:all\s+)?(?:my\s+)?products(?:\s+(?:matching|named|like)\s+(?P<search>.+))?$`,
			`(?:^|\s)(?:सभी\s+)?(?:products|प्रोडक्ट्स)\s+(?:dikhao|दिखाओ)`,
		)},

		// ---- lojas
		{Action: "verify_shop", Patterns: compile(
			enTarget(`verify|approve|verify\s+pending|approve\s+pending`, "shop_id", shopNouns),
			hiTarget("shop_id", shopNouns, `verify|वेरिफाई|approve|अप्रूव`),
			`(?:^|\s)(?:shop|दुकान)\s+(?:verify|वेरिफाई|approve)`+karo+`\s+#?(?P<shop_id>\d+)`,
		)},
		{Action: "suspend_shop", Patterns: compile(
			enTarget(`suspend`, "shop_id", shopNouns),
			hiTarget("shop_id", shopNouns, `suspend|सस्पेंड|बंद`),
			`(?:^|\s)(?:दुकान|shop)\s+(?:बंद|suspend|सस्पेंड)`+karo+`\s+#?(?P<shop_id>\d+)`,
		)},
		{Action: "activate_shop", Patterns: compile(
			enTarget(`activate|reactivate`, "shop_id", shopNouns),
			hiTarget("shop_id", shopNouns, `activate|एक्टिवेट|चालू`),
			`(?:^|\s)(?:दुकान|shop)\s+(?:चालू|activate|एक्टिवेट)`+karo+`\s+#?(?P<shop_id>\d+)`,
		)},
		{Action: "delete_shop", Patterns: compile(
			enTarget(`delete|remove`, "shop_id", shopNouns),
			hiTarget("shop_id", shopNouns, `hatao|हटाओ|हटा\s+दो|delete|डिलीट`),
		)},
		{Action: "get_shop", Patterns: compile(
			enTarget(`show|get|view`, "shop_id", shopNouns),
			`(?:^|\s)shop\s+details\s+#?(?P<shop_id>\d+)`,
			hiTarget("shop_id", shopNouns, `dikhao|दिखाओ|की\s+जानकारी`),
		)},
		{Action: "list_shops", Patterns: compile(
			`(?:^|\s)(?:list|show|view)\s+(?:all\s+)?(?:(?P<status>active|pending|suspended)\s+)?(?:shops|stores)(?:\s+in\s+(?P<city>[^\d]+))?$`,
			`(?:^|\s)(?:सभी\s+)?(?:दुकानें|dukaan|dukane|shops)\s+(?:dikhao|दिखाओ)`,
		)},

		// ---- usuários e clientes
		{Action: "list_customers", Patterns: compile(
			`(?:^|\s)(?:list|show)\s+(?:all\s+|my\s+)?customers$`,
			`(?:^|\s)(?:ग्राहक|customers)\s+(?:dikhao|दिखाओ)`,
		)},
		{Action: "get_user", Patterns: compile(
			enTarget(`show|get|view`, "user_id", userNouns),
			`(?:^|\s)user\s+details\s+#?(?P<user_id>\d+)`,
			hiTarget("user_id", userNouns, `dikhao|दिखाओ|की\s+जानकारी`),
		)},
		{Action: "list_users", Patterns: compile(
			`(?:^|\s)(?:list|show)\s+(?:all\s+)?(?:(?P<role>super_admin|shop_admin|admins?|customers?)\s+)?users(?:\s|$)`,
			`(?:^|\s)(?:सभी\s+)?(?:users|यूज़र्स)\s+(?:dikhao|दिखाओ)`,
		)},

		// ---- busca por último: captura texto livre
		{Action: "search_products", Patterns: compile(
			`(?:^|\s)(?:search|find)\s+(?:for\s+)?(?:products?\s+)?(?P<query>.+)$`,
			`^(?P<query>.+?)\s+(?:khojo|खोजो|dhundho|ढूंढो)$`,
		)},
	}
}
