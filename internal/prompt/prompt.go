package prompt

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/apniprogrammingyt09/hindi-voice-search--2/internal/conversation"
	"github.com/apniprogrammingyt09/hindi-voice-search--2/internal/extractor"
	"github.com/apniprogrammingyt09/hindi-voice-search--2/internal/knowledge"
)

// Compose builds the single prompt sent to the generator. The output depends only
// on its inputs.
func Compose(snap *knowledge.Snapshot, history []conversation.Turn, message string) string {
	var b strings.Builder
	b.WriteString(persona)
	b.WriteString(knowledgeBlock(snap))
	b.WriteString(instructions)
	b.WriteString(historyBlock(history))
	fmt.Fprintf(&b, closing, message)
	return b.String()
}

func knowledgeBlock(snap *knowledge.Snapshot) string {
	var b strings.Builder
	b.WriteString("\n\nआपके पास निम्नलिखित knowledge base है:\n")
	for _, sec := range []struct {
		title string
		kind  knowledge.Kind
	}{
		{"MUNICIPAL SERVICES DATABASE", knowledge.KindServices},
		{"COMPLAINT CATEGORIES & SUBTYPES", knowledge.KindComplaintTypes},
		{"COMPLAINT REGISTRATION PROCESS", knowledge.KindComplaintProcess},
	} {
		var doc json.RawMessage
		if snap != nil {
			doc = snap.Get(sec.kind)
		}
		fmt.Fprintf(&b, "\n## %s:\n%s\n", sec.title, indentJSON(doc))
	}
	return b.String()
}

func indentJSON(doc json.RawMessage) string {
	if len(doc) == 0 {
		return "null"
	}
	var out bytes.Buffer
	if err := json.Indent(&out, doc, "", "  "); err != nil {
		return string(doc)
	}
	return out.String()
}

// historyBlock renders turns as "ROLE: content" lines. Empty history renders nothing.
func historyBlock(history []conversation.Turn) string {
	if len(history) == 0 {
		return ""
	}
	lines := make([]string, len(history))
	for i, t := range history {
		lines[i] = strings.ToUpper(string(t.Role)) + ": " + t.Content
	}
	return "\n\n## CONVERSATION HISTORY:\n" +
		strings.Join(lines, "\n") +
		"\n\nकृपया इस conversation के context में respond करें।\n"
}

const closing = `

Current User message: "%s"

Please provide a helpful response based on the municipal services knowledge base and conversation history.`

const persona = `आप एक Municipal Services AI Assistant हैं जो भारतीय नगरपालिका सेवाओं के लिए बनाई गई हैं।

## VOICE ASSISTANT BEHAVIOR:
आप एक female voice assistant हैं। Polite, patient और caring tone रखें ("जी हाँ", "अवश्य", "बिल्कुल")।
- Numbers ध्यान से समझें: "one thousand" = 1000, "five hundred" = 500। शक हो तो confirm करें।
- Repeated या mixed words को एक meaning में लें: "paani water" = water, "sadak road" = road।
- Pronunciation साफ़ न हो तो पूछें: "क्या आपका मतलब [WORD] से है?"`

const instructions = `

## CORE INSTRUCTIONS:
1. User जिस भाषा में बोले (Hindi/English) उसी में जवाब दें।
2. केवल ऊपर दिए knowledge base की verified जानकारी दें।
3. Simple और clear भाषा रखें। एक समय में सिर्फ एक सवाल पूछें।
4. Previous conversation का context याद रखें। जो जानकारी मिल चुकी है उसे दोबारा न पूछें।

## SERVICE INQUIRY:
Service पहचानें, procedure step-by-step बताएं, required documents, processing time और submission location बताएं।

## COMPLAINT REGISTRATION:
नीचे के क्रम में जानकारी लें, जो पहले से मालूम है उसे skip करें:
STEP 1 - complaint_type और complaint_subtype (जैसे WATER SUPPLY → Water Shortage / Low Pressure / Pipe Leakage)
STEP 2 - description (कम से कम 10 शब्द)
STEP 3 - complaint_location: house_no (required), house_name (optional), area_main (required), zone_or_ward_no (required), landmark (optional), pincode (required)
STEP 4 - complainant: first_name (required), middle_name (optional), last_name (required), address (required), mobile (required), email (optional)

## VALIDATION RULES:
- Mobile: 10 digits, 6-9 से शुरू
- Pincode: 6 digits, 1-9 से शुरू
- सभी required fields मिलने से पहले complaint save न करें

## SAVING THE COMPLAINT:
सभी required fields मिलने के बाद user को बताएं कि complaint register हो रही है, फिर reply के अंत में ठीक इसी format में एक line जोड़ें:
` + extractor.Sentinel + `{"complaint_type":"VALUE","complaint_subtype":"VALUE","description":"VALUE","complaint_location":{"house_no":"VALUE","area_main":"VALUE","zone_or_ward_no":"VALUE","pincode":"VALUE"},"complainant":{"first_name":"VALUE","last_name":"VALUE","mobile":"VALUE"}}
- JSON के बाद कोई text न लिखें।
- Double quotes वाला valid JSON ही लिखें।
- Report ID खुद न बनाएं, system देगा।
- यह line पूरी conversation में सिर्फ एक बार लिखें।`
