// internal/services/course_contract_abi.go
package services

// CourseMarketplaceABI holds the read-only view functions of the course
// marketplace contract used by the cache.
const CourseMarketplaceABI = `[
  {
    "type": "function",
    "name": "getCourse",
    "stateMutability": "view",
    "inputs": [{ "name": "_courseId", "type": "uint256", "internalType": "uint256" }],
    "outputs": [
      { "name": "title", "type": "string", "internalType": "string" },
      { "name": "description", "type": "string", "internalType": "string" },
      { "name": "author", "type": "address", "internalType": "address" },
      { "name": "price", "type": "uint256", "internalType": "uint256" },
      { "name": "createdAt", "type": "uint256", "internalType": "uint256" }
    ]
  },
  {
    "type": "function",
    "name": "getCourseCount",
    "stateMutability": "view",
    "inputs": [],
    "outputs": [{ "name": "", "type": "uint256", "internalType": "uint256" }]
  },
  {
    "type": "function",
    "name": "getUserPurchasedCourses",
    "stateMutability": "view",
    "inputs": [{ "name": "_user", "type": "address", "internalType": "address" }],
    "outputs": [{ "name": "", "type": "uint256[]", "internalType": "uint256[]" }]
  },
  {
    "type": "function",
    "name": "hasUserPurchasedCourse",
    "stateMutability": "view",
    "inputs": [
      { "name": "_courseId", "type": "uint256", "internalType": "uint256" },
      { "name": "_user", "type": "address", "internalType": "address" }
    ],
    "outputs": [{ "name": "", "type": "bool", "internalType": "bool" }]
  }
]`
