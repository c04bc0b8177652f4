package agent

const promptForDetails = "Please provide detailed symptoms for accurate analysis."

const (
	adviceFeverCough = "Based on your symptoms of fever and cough, it's recommended to rest, stay hydrated, and monitor your temperature. " +
		"If fever persists above 101°F (38.3°C) for more than 3 days, consult a healthcare provider. " +
		"Over-the-counter fever reducers and cough suppressants may help. " +
		"Note: This is a general suggestion - consult a doctor for proper diagnosis."

	adviceHeadache = "For headaches, try resting in a dark, quiet room, stay hydrated, and consider over-the-counter pain relievers like ibuprofen or acetaminophen. " +
		"If headaches are severe, frequent, or accompanied by vision changes, seek immediate medical attention."

	adviceSkin = "For skin rashes or itching, avoid scratching, keep the area clean and dry, and consider applying a gentle moisturizer or over-the-counter hydrocortisone cream. " +
		"If the rash spreads, is painful, or accompanied by fever, consult a dermatologist."

	adviceStomach = "For stomach issues or nausea, stay hydrated with clear fluids, eat bland foods, avoid spicy or fatty foods, and rest. " +
		"If symptoms persist or are severe, consult a healthcare provider."
)

var genericAdvice = []string{
	"Rest and hydration. Consider over-the-counter pain relievers like acetaminophen or ibuprofen if needed.",
	"Apply warm compress and take rest. Consult a doctor if symptoms persist beyond 3 days.",
	"Maintain good hygiene and keep the affected area clean and dry. Monitor for any changes.",
	"Increase fluid intake and maintain a balanced diet. Avoid irritants and allergens.",
	"Get adequate sleep (7-9 hours) and consider stress-reduction techniques. Monitor symptoms closely.",
	"Apply cold compress if there's swelling. Avoid scratching or rubbing the affected area.",
	"Consider antihistamines for allergic reactions. Remove potential allergens from your environment.",
	"Over-the-counter antacids may help. Maintain a food diary to identify triggers.",
	"Gargle with warm salt water. Stay hydrated and get plenty of rest.",
	"Topical creams may provide relief. Keep the area clean and avoid tight clothing.",
}

const genericDisclaimer = "\n\n⚠️ Important: This is an AI-generated suggestion and should not replace professional medical advice. " +
	"Please consult a qualified healthcare provider for proper diagnosis and treatment."

const imageReportHeader = "AI Image Analysis Results:\n\n"

var imageFindings = map[Seriousness]string{
	SeriousnessLow: "Seriousness Rating: 🟢 LOW\n\n" +
		"The uploaded image suggests minor concerns. The condition appears localized and manageable. " +
		"Recommendations: Monitor the area, maintain good hygiene, and apply appropriate over-the-counter treatments. " +
		"If the condition persists or worsens, consult a healthcare provider.",
	SeriousnessMedium: "Seriousness Rating: 🟡 MEDIUM\n\n" +
		"The uploaded image indicates a condition that may require attention. " +
		"Recommendations: Keep the area clean, avoid irritants, and consider consulting a healthcare provider within 1-2 days if no improvement is seen. " +
		"Monitor for any signs of spreading or worsening symptoms.",
	SeriousnessHigh: "Seriousness Rating: 🔴 HIGH\n\n" +
		"The uploaded image suggests a condition that requires prompt medical attention. " +
		"Recommendations: Please consult a healthcare provider as soon as possible, preferably within 24 hours. " +
		"Do not delay seeking professional medical advice. If symptoms are severe or rapidly worsening, consider emergency care.",
}

const imageDisclaimer = "\n\n⚠️ Disclaimer: This AI analysis is for informational purposes only and does not constitute a medical diagnosis. " +
	"Always consult a qualified healthcare professional for proper evaluation and treatment."
