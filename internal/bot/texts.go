package bot

const (
	textGreeting     = "Salom, %s!"
	textNotifyOn     = "✅ Har kuni namoz vaqtlari yuboriladi."
	textNotifyOff    = "❌ Namoz vaqtlari yuborilmaydi."
	textButtonYes    = "✅ Ha, yuboring"
	textButtonNo     = "❌ Yo'q, kerak emas"
	textRateLimited  = "⚠️ Siz juda tez-tez xabar yuboryapsiz. Iltimos, biroz kuting."
	textLookupFailed = "⚠️ Kechirasiz, namoz vaqtlarini hozir olib bo'lmadi. Iltimos, keyinroq urinib ko'ring."
	textStoreFailed  = "❌ Sozlamalarni saqlashda xatolik yuz berdi. Iltimos, keyinroq urinib ko'ring."
	textNoCity       = "Siz hali shahar tanlamagansiz. Quyidagi ro'yxatdan shaharni tanlang."

	textHelp = `Shaharni tanlang va bugungi namoz vaqtlarini oling.
Har kuni soat %s da namoz vaqtlarini olish uchun "✅ Ha, yuboring" tugmasini bosing.

/start - boshlash
/holat - joriy sozlamalar
/help - yordam`

	textStatus = `📍 Shahar: %s
🔔 Kunlik xabar: %s`
	textStatusOn  = "yoqilgan"
	textStatusOff = "o'chirilgan"
)
